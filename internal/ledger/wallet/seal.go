package wallet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/pkg/crypto/adaptive"
)

// sealMagic prefixes encrypted records. The byte after it names the
// cipher so records written on one architecture open on another.
var sealMagic = []byte("AGW1")

var sealCipherCodes = map[adaptive.CipherType]byte{
	adaptive.CipherAESGCM:   1,
	adaptive.CipherChaCha20: 2,
}

// sealer encrypts identity records with the label as associated data,
// so a record copied under another label does not open.
type sealer struct {
	key    []byte
	cipher adaptive.Cipher
}

func newSealer(key []byte) (*sealer, error) {
	c, err := adaptive.New(key)
	if err != nil {
		return nil, fmt.Errorf("wallet: encryption key: %w", err)
	}
	return &sealer{key: key, cipher: c}, nil
}

func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealMagic) && len(data) > len(sealMagic)
}

func (s *sealer) seal(label string, record []byte) ([]byte, error) {
	ct, err := s.cipher.Encrypt(record, []byte(label))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sealMagic)+1+len(ct))
	out = append(out, sealMagic...)
	out = append(out, sealCipherCodes[s.cipher.Type()])
	return append(out, ct...), nil
}

// open returns the plaintext record. Unsealed records pass through so a
// wallet can be encrypted gradually; a nil sealer cannot open sealed
// records.
func (s *sealer) open(label string, data []byte) ([]byte, error) {
	if !isSealed(data) {
		return data, nil
	}
	if s == nil {
		return nil, domain.ErrIdentityInvalid.WithDetails(label).
			WithCause(errors.New("record is encrypted and no wallet key is configured"))
	}

	code := data[len(sealMagic)]
	var typ adaptive.CipherType
	for t, c := range sealCipherCodes {
		if c == code {
			typ = t
		}
	}
	c, err := adaptive.NewWithType(s.key, typ)
	if err != nil {
		return nil, domain.ErrIdentityInvalid.WithDetails(label).WithCause(err)
	}

	record, err := c.Decrypt(data[len(sealMagic)+1:], []byte(label))
	if err != nil {
		return nil, domain.ErrIdentityInvalid.WithDetails(label).WithCause(err)
	}
	return record, nil
}
