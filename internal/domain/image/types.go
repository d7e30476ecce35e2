package image

// Decoded is a client image after validation and re-encoding.
type Decoded struct {
	// Bytes holds the re-encoded JPEG.
	Bytes  []byte
	Base64 string
	MIME   string
	Width  int
	Height int
	// SourceFormat is the format detected in the client payload.
	SourceFormat string
	// ColorDiversity counts distinct colours among the first 100 pixels.
	ColorDiversity int
}

// DataURL renders the image as a data: URL.
func (d *Decoded) DataURL() string {
	return "data:" + d.MIME + ";base64," + d.Base64
}

// ValidationResult captures the outcome of security validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}
