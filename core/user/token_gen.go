package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var (
	tokenSalt  = []byte("janis.core.user.token_gen")
	tokenEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	dayCodec   = base32.StdEncoding.WithPadding(base32.NoPadding)

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenGenerator issues password reset tokens of the form "<base32 day>-<signature>".
// A token is invalidated by a password change, a new login or the timeout.
type tokenGenerator struct {
	key     [sha256.Size]byte
	timeout time.Duration
	now     func() time.Time
}

func newTokenGenerator(secret string, timeout time.Duration) tokenGenerator {
	return tokenGenerator{
		key:     sha256.Sum256(append(append([]byte{}, tokenSalt...), secret...)),
		timeout: timeout,
		now:     time.Now,
	}
}

func (g tokenGenerator) today() int {
	return int(g.now().Sub(tokenEpoch) / day)
}

func (g tokenGenerator) make(usr User) string {
	return g.makeForDay(usr, g.today())
}

func (g tokenGenerator) makeForDay(usr User, d int) string {
	stamp := strconv.Itoa(d)
	mac := hmac.New(sha256.New, g.key[:])
	mac.Write([]byte(strconv.FormatInt(usr.ID, 10)))
	mac.Write(usr.PasswordHash)
	if usr.LastLogin != nil {
		mac.Write([]byte(usr.LastLogin.UTC().Truncate(time.Second).Format(time.RFC3339)))
	}
	mac.Write([]byte(stamp))
	return dayCodec.EncodeToString([]byte(stamp)) + "-" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (g tokenGenerator) verify(usr User, token string) error {
	stamp, _, ok := strings.Cut(token, "-")
	if !ok {
		return errInvalidToken
	}
	raw, err := dayCodec.DecodeString(stamp)
	if err != nil {
		return errInvalidToken
	}
	d, err := strconv.Atoi(string(raw))
	if err != nil {
		return errInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(g.makeForDay(usr, d)), []byte(token)) != 1 {
		return errInvalidToken
	}
	if g.today()-d > int(g.timeout/day) {
		return errTokenExpired
	}
	return nil
}

// EncodeUID encodes the user ID for reset links.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(usr.ID, 10)))
}

func decodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}
