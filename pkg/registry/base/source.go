package base

import (
	"encoding/base64"
	"fmt"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

// Source is source code of a function.
//
// Code is given as one of Code (plain text), Base64 (encoded) or Source (URI to fetch).
type Source struct {
	Source  string `json:"source,omitempty"`
	Handler string `json:"handler,omitempty"`
	Code    string `json:"code,omitempty"`
	Base64  string `json:"base64,omitempty"`
	Lang    string `json:"lang,omitempty"`
}

func (s *Source) Validate() error {
	if s.Base64 != "" {
		if _, err := base64.StdEncoding.DecodeString(s.Base64); err != nil {
			return fmt.Errorf("%w: source.base64 is broken: %s", dherr.ErrValidation, err)
		}
	}
	if s.Source != "" {
		if _, err := uri.MapURIScheme(s.Source); err != nil {
			return fmt.Errorf("%w: source.source: %w", dherr.ErrValidation, err)
		}
	}
	return nil
}

// Empty reports whether no code is given.
func (s *Source) Empty() bool {
	return s == nil || (s.Source == "" && s.Code == "" && s.Base64 == "")
}

// Text returns the code inline.
//
// Code takes precedence over Base64. When neither is given, ok is false.
func (s *Source) Text() (code string, ok bool, err error) {
	if s == nil {
		return "", false, nil
	}
	if s.Code != "" {
		return s.Code, true, nil
	}
	if s.Base64 != "" {
		b, err := base64.StdEncoding.DecodeString(s.Base64)
		if err != nil {
			return "", false, fmt.Errorf("%w: source.base64 is broken: %s", dherr.ErrValidation, err)
		}
		return string(b), true, nil
	}
	return "", false, nil
}
