package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hashes are self-describing PHC-style strings, so verification needs
// nothing beyond the stored value:
// argon2id$v=19$m=65536,t=3,p=2$<salt_b64>$<key_b64>

const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	saltLen     = 16
	keyLen      = 32
)

var ErrMismatch = errors.New("password mismatch")

func Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password is required")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, iterations, memory, parallelism, keyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// Compare re-derives the key with the parameters embedded in hash and
// checks it in constant time. Returns ErrMismatch when plain does not
// match, or a descriptive error for an undecodable hash.
func Compare(hash, plain string) error {
	mem, iter, par, salt, want, err := decode(hash)
	if err != nil {
		return err
	}
	got := argon2.IDKey([]byte(plain), salt, iter, mem, par, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}

func decode(hash string) (mem, iter uint32, par uint8, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("unsupported password hash format")
	}
	ver, err := strconv.Atoi(strings.TrimPrefix(parts[1], "v="))
	if err != nil || ver != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}
	for _, kv := range strings.Split(parts[2], ",") {
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) != 2 {
			return 0, 0, 0, nil, nil, errors.New("invalid argon2 parameters")
		}
		v, perr := strconv.ParseUint(pair[1], 10, 32)
		if perr != nil {
			return 0, 0, 0, nil, nil, errors.New("invalid argon2 parameters")
		}
		switch pair[0] {
		case "m":
			mem = uint32(v)
		case "t":
			iter = uint32(v)
		case "p":
			par = uint8(v)
		default:
			return 0, 0, 0, nil, nil, errors.New("invalid argon2 parameters")
		}
	}
	enc := base64.RawStdEncoding
	if salt, err = enc.DecodeString(parts[3]); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 salt")
	}
	if key, err = enc.DecodeString(parts[4]); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 key")
	}
	if mem == 0 || iter == 0 || par == 0 || len(salt) == 0 || len(key) == 0 {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 parameters")
	}
	return mem, iter, par, salt, key, nil
}
