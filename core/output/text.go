package output

import (
	"fmt"
	"io"
	"strings"
)

// TextFormatter writes the plain-text export
type TextFormatter struct{}

// Format returns FormatText
func (TextFormatter) Format() Format { return FormatText }

// Render writes title, object, derivation and total
func (TextFormatter) Render(w io.Writer, offer *Offer) error {
	_, err := fmt.Fprintf(w, "%s\nObject: %s\n\n%s:\n%s\n\n%s %s",
		OfferTitle,
		offer.ObjectName(),
		MethodLabel,
		strings.Join(offer.Lines(), "\n\n"),
		TotalLabel,
		offer.Total(),
	)
	return err
}
