package checksum

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/sha3"
)

// Sum returns the hex-encoded SHA3-512 digest of data.
func Sum(data []byte) string {
	h := sha3.Sum512(data)
	return hex.EncodeToString(h[:])
}

// ImageName returns the content-addressed file name of a JPEG page image:
// the SHA3-512 digest, a hyphen, the size in bytes and ".jpeg".
func ImageName(data []byte) string {
	return Sum(data) + "-" + strconv.Itoa(len(data)) + ".jpeg"
}
