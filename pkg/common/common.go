package common

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

type Msg struct {
	Message string `json:"message"`
}

type ErrMsg struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func WriteMsg(w http.ResponseWriter, msg string, code int) {
	w.WriteHeader(code)
	WriteRespJSON(w, Msg{msg})
}

func WriteRespJSON(w http.ResponseWriter, data interface{}) {
	resp, err := json.Marshal(data)
	if err != nil {
		zap.S().Errorf("common: JSON marshaling failed: %v", err)
		WriteMsg(w, "response failed", http.StatusInternalServerError)
		return
	}

	_, err = w.Write(resp)
	if err != nil {
		zap.S().Errorf("common: failed writing response: %v", err)
	}
}

func ParseReqBody(body io.Reader, ptr interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(ptr)
}

// Length of the salt stored in front of every password hash.
const SaltLen = 16

func HashPass(plainPassword string) ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return HashPassWithSalt(plainPassword, salt), nil
}

func HashPassWithSalt(plainPassword string, salt []byte) []byte {
	hashedPass := argon2.IDKey([]byte(plainPassword), salt, 1, 64*1024, 4, 32)
	res := make([]byte, 0, len(salt)+len(hashedPass))
	res = append(res, salt...)
	return append(res, hashedPass...)
}

func CheckPass(hash []byte, plainPassword string) bool {
	if len(hash) <= SaltLen {
		return false
	}
	salt := hash[:SaltLen]
	return subtle.ConstantTimeCompare(HashPassWithSalt(plainPassword, salt), hash) == 1
}

// QueryInt reads a positive integer query parameter, falling back to def
// when it is absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}
