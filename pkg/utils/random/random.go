package random

import (
	"crypto/rand"
	"math/big"
)

// Alphabet without 0/O/1/I so codes survive being read aloud.
const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Code returns a room code of the given length.
func Code(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(letters)))
	runes := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			runes[i] = letters[0]
			continue
		}
		runes[i] = letters[n.Int64()]
	}
	return string(runes)
}
