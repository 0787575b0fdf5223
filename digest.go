package wsrouter

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"regexp"
	"strings"
)

// The gate is a relaxed take on RFC 2617 (qop=auth, MD5): a request passes when
// its response matches any of the route's secrets, so it proves knowledge of a
// secret rather than a user identity. Nonces are not remembered between
// requests, which means there is no replay protection.

const (
	nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUabcdefghijklmnopqrstuvwxyz0123456789=.?!^|-_<>"
	nonceLength   = 60

	// ForbiddenPath is where a rejected browser is sent after the 401.
	ForbiddenPath = "/403"
)

var (
	nonceReader io.Reader = rand.Reader

	digestSeparator  = regexp.MustCompile(`,\s*`)
	digestRejectBody = `<body><script type="text/javascript">setTimeout(()=>location.pathname='` + ForbiddenPath + `', 0);</script></body>`
)

// DigestA1 computes the secret to hand to Route.AUTH for a user and password in realm.
func DigestA1(user, realm, password string) string {
	return md5Hex(user + ":" + realm + ":" + password)
}

// DigestResponse computes the response field a client sends for secret a1.
func DigestResponse(a1, method, path, nonce, nc, cnonce, qop string) string {
	a2 := md5Hex(method + ":" + path)
	return md5Hex(a1 + ":" + nonce + ":" + nc + ":" + cnonce + ":" + qop + ":" + a2)
}

// ParseDigestAuthorization splits a Digest Authorization header into its fields.
// Quotes are stripped and values may contain '='.
func ParseDigestAuthorization(header string) map[string]string {
	fields := map[string]string{}
	header = strings.Replace(header, "Digest ", "", 1)
	header = strings.ReplaceAll(header, `"`, "")
	for _, part := range digestSeparator.Split(header, -1) {
		key, value, _ := strings.Cut(part, "=")
		fields[key] = value
	}
	return fields
}

// Authenticate reports whether req answers the Digest challenge for one of route's secrets.
func Authenticate(req *Request, route *Route) bool {
	fields := ParseDigestAuthorization(req.Headers.Get("Authorization"))
	response := fields["response"]
	if response == "" {
		return false
	}

	matched := false
	for _, a1 := range route.credentials {
		candidate := DigestResponse(a1, req.Method, req.Path, fields["nonce"], fields["nc"], fields["cnonce"], fields["qop"])
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(response)) == 1 {
			matched = true
		}
	}
	return matched
}

// Challenge sends the 401 answer carrying a fresh nonce.
func Challenge(res *Response, route *Route) error {
	nonce, err := newNonce()
	if err != nil {
		return err
	}
	res.Status = http.StatusUnauthorized
	res.Header.Set("WWW-Authenticate", fmt.Sprintf(`Digest realm="%s", nonce="%s", algorithm=MD5, qop="auth"`, route.path, nonce))
	res.Header.Set("Content-Type", "text/html")
	res.Body = []byte(digestRejectBody)
	return res.Send()
}

func newNonce() (string, error) {
	var sb strings.Builder
	sb.Grow(nonceLength)
	limit := big.NewInt(int64(len(nonceAlphabet)))
	for i := 0; i < nonceLength; i++ {
		n, err := rand.Int(nonceReader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(nonceAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
