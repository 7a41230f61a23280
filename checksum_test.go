package vfskit

import (
	"errors"
	"strings"
	"testing"
)

func TestChecksum(t *testing.T) {
	t.Run("known sha256 vector", func(t *testing.T) {
		sum, err := ChecksumBytes([]byte("hello"), ChecksumSHA256)
		if err != nil {
			t.Fatalf("ChecksumBytes() error = %v", err)
		}
		want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
		if sum != want {
			t.Errorf("sha256 = %s, want %s", sum, want)
		}
	})

	t.Run("every algorithm produces hex output", func(t *testing.T) {
		for _, algorithm := range []ChecksumAlgorithm{ChecksumSHA256, ChecksumCRC32, ChecksumXXHash} {
			sum, err := CalculateChecksum(strings.NewReader("payload"), algorithm)
			if err != nil {
				t.Fatalf("%s: error = %v", algorithm, err)
			}
			if sum == "" {
				t.Errorf("%s: empty checksum", algorithm)
			}
			again, _ := CalculateChecksum(strings.NewReader("payload"), algorithm)
			if sum != again {
				t.Errorf("%s: checksum not deterministic", algorithm)
			}
		}
	})

	t.Run("unknown algorithm is rejected", func(t *testing.T) {
		if _, err := ChecksumBytes(nil, "md5"); !errors.Is(err, ErrNotSupported) {
			t.Errorf("error = %v, want not supported", err)
		}
	})
}
