// ABOUTME: Version and product identification
// ABOUTME: Used in the User-Agent header and startup log line
package version

const (
	Product      = "headerclock"
	Manufacturer = "headerclock authors"
	Version      = "0.3.0"
)

// UserAgent is sent with every time fetch.
func UserAgent() string {
	return Product + "/" + Version
}
