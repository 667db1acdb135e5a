package utils

import (
	"strings"

	"github.com/google/uuid"
)

const barcodeLength = 12

// GenerateBarcode returns a random upper-case hex barcode.
func GenerateBarcode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:barcodeLength])
}
