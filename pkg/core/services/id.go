package services

import (
	"crypto/rand"
	"math/big"
)

// 64 symbols * 20 characters gives 120 bits per id.
const (
	charset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	idLength = 20
)

func generateID(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}

type noopRecorder struct{}

func (noopRecorder) LetterSubmitted() {}
func (noopRecorder) LetterApproved()  {}
func (noopRecorder) LetterRejected()  {}
func (noopRecorder) VisitRecorded()   {}
