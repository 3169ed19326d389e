package types

import "fmt"

// Artwork represents an embedded image.
//
// Images come from ID3v2 APIC/PIC frames, APE "Cover Art (...)" binary
// items and Lyrics3v2 IMG links (Data is nil for those).
type Artwork struct {
	// MIME type of the image data, "image/jpeg" when only an extension was stored
	MIMEType string

	// Description or original file name
	Description string

	// Image binary data
	Data []byte

	// Type of artwork (front cover, back cover, artist photo, etc.)
	Type ArtworkType

	// Tag format the image was read from
	Source Format
}

// ArtworkType categorizes the purpose of an image.
//
// Values follow the ID3v2 APIC picture type byte.
// See: https://id3.org/id3v2.4.0-frames (APIC frame)
type ArtworkType int

const (
	ArtworkOther             ArtworkType = iota // Other
	ArtworkIcon                                 // File icon (32x32 PNG)
	ArtworkOtherIcon                            // Other file icon
	ArtworkFrontCover                           // Front cover
	ArtworkBackCover                            // Back cover
	ArtworkLeaflet                              // Leaflet page
	ArtworkMedia                                // Media (CD/vinyl label)
	ArtworkLeadArtist                           // Lead artist/performer/soloist
	ArtworkArtist                               // Artist/performer
	ArtworkConductor                            // Conductor
	ArtworkBand                                 // Band/orchestra
	ArtworkComposer                             // Composer
	ArtworkLyricist                             // Lyricist/text writer
	ArtworkRecordingLocation                    // Recording location
	ArtworkDuringRecording                      // During recording
	ArtworkDuringPerformance                    // During performance
	ArtworkVideoCapture                         // Movie/video screen capture
	ArtworkBrightFish                           // A bright colored fish
	ArtworkIllustration                         // Illustration
	ArtworkBandLogotype                         // Band/artist logotype
	ArtworkPublisherLogotype                    // Publisher/studio logotype
)

var artworkTypeNames = [...]string{
	"Other", "File icon", "Other file icon", "Front cover", "Back cover",
	"Leaflet page", "Media", "Lead artist", "Artist", "Conductor", "Band",
	"Composer", "Lyricist", "Recording location", "During recording",
	"During performance", "Video capture", "Bright colored fish",
	"Illustration", "Band logotype", "Publisher logotype",
}

func (t ArtworkType) String() string {
	if t < 0 || int(t) >= len(artworkTypeNames) {
		return fmt.Sprintf("ArtworkType(%d)", int(t))
	}
	return artworkTypeNames[t]
}

// String returns a human-readable description of the artwork.
//
// Example output: "Front cover (image/jpeg, 245KB) from ID3v2"
func (a Artwork) String() string {
	return fmt.Sprintf("%s (%s, %s) from %s", a.Type, a.MIMEType, formatSize(len(a.Data)), a.Source)
}

// formatSize formats byte size in human-readable form.
func formatSize(bytes int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%dKB", bytes/KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// MIMEFromExtension maps an image file extension to a MIME type.
func MIMEFromExtension(ext string) string {
	switch ext {
	case "png", "PNG", ".png":
		return "image/png"
	case "gif", "GIF", ".gif":
		return "image/gif"
	case "bmp", "BMP", ".bmp":
		return "image/bmp"
	case "webp", ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
