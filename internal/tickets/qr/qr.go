package qr

import (
	"errors"

	"github.com/skip2/go-qrcode"

	"ms-attendance/internal/models"
)

const DefaultSize = 256

var ErrEmptyBarcode = errors.New("ticket has no barcode")

// Generator renders ticket barcodes as PNG QR codes that the gate
// scanners read back verbatim.
type Generator struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{Size: size, Level: qrcode.Medium}
}

func (g *Generator) GenerateTicketQR(ticket models.Ticket) ([]byte, error) {
	if ticket.Barcode == "" {
		return nil, ErrEmptyBarcode
	}
	return qrcode.Encode(ticket.Barcode, g.Level, g.Size)
}
