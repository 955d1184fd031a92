package service

import (
	"crypto/rand"
	"io"
)

// orderCodeAlphabet leaves out 0/O and 1/I.
const orderCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOrderCode returns a human-friendly code such as AB7K-3XQM.
func NewOrderCode() (string, error) {
	return newOrderCodeFrom(rand.Reader)
}

func newOrderCodeFrom(src io.Reader) (string, error) {
	var buf [8]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return "", err
	}
	code := make([]byte, 0, 9)
	for i, b := range buf {
		if i == 4 {
			code = append(code, '-')
		}
		// 256 is a multiple of the alphabet size, so the modulo is unbiased.
		code = append(code, orderCodeAlphabet[int(b)%len(orderCodeAlphabet)])
	}
	return string(code), nil
}
