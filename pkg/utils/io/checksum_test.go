package io_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	dhio "github.com/scc-digitalhub/digitalhub-go/pkg/utils/io"
)

func TestChecksumReader(t *testing.T) {
	// expected hashes are generated with `md5sum` and `sha256sum` commands.
	type When struct {
		newReader func(io.Reader) dhio.ChecksumReader
		payload   string
	}
	type Then struct {
		checksum string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			testee := when.newReader(strings.NewReader(when.payload))
			read, err := io.ReadAll(testee)
			if err != nil {
				t.Fatal(err)
			}
			if string(read) != when.payload {
				t.Errorf("content is changed: %s", read)
			}
			if testee.Checksum() != then.checksum {
				t.Errorf("checksum: expected %s, got %s", then.checksum, testee.Checksum())
			}
			_, hexsum, _ := strings.Cut(then.checksum, ":")
			if want, _ := hex.DecodeString(hexsum); !bytes.Equal(testee.Sum(), want) {
				t.Errorf("sum does not match checksum")
			}
		}
	}

	t.Run("md5 of empty", theory(
		When{newReader: dhio.NewMD5Reader, payload: ""},
		Then{checksum: "md5:d41d8cd98f00b204e9800998ecf8427e"},
	))

	t.Run("md5 of text", theory(
		When{newReader: dhio.NewMD5Reader, payload: "test text to be hashed"},
		Then{checksum: "md5:a21436eeedcb3a89a5c9b4513655048f"},
	))

	t.Run("sha256 of empty", theory(
		When{newReader: dhio.NewSHA256Reader, payload: ""},
		Then{checksum: "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	))
}

type failing struct{}

func (failing) Read([]byte) (int, error) {
	return 0, errors.New("broken")
}

func TestChecksum(t *testing.T) {
	sum, err := dhio.Checksum(strings.NewReader("test text to be hashed"))
	if err != nil {
		t.Fatal(err)
	}
	if sum != "md5:a21436eeedcb3a89a5c9b4513655048f" {
		t.Errorf("unexpected checksum: %s", sum)
	}

	if _, err := dhio.Checksum(failing{}); err == nil {
		t.Error("expected error")
	}
}
