package admin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sarhadsec/scanbot/internal/common"
)

// initDataMaxAge bounds how old a signed payload may be before it is
// considered replayed.
const initDataMaxAge = 24 * time.Hour

// webAppUser is the user object embedded in Telegram WebApp init data.
type webAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// verifyInitData checks the Telegram WebApp signature over raw init data and
// returns the authenticated user id.
//
// Telegram signs the data-check-string (sorted key=value pairs joined by
// newlines, hash excluded) with HMAC-SHA256 keyed by
// HMAC-SHA256("WebAppData", botToken).
func verifyInitData(raw, botToken string, now time.Time) (int64, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed init data", common.ErrValidation)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return 0, fmt.Errorf("%w: missing hash", common.ErrValidation)
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for k := range values {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(gotHash), []byte(wantHash)) {
		return 0, fmt.Errorf("%w: signature mismatch", common.ErrValidation)
	}

	var authDate int64
	if _, err := fmt.Sscanf(values.Get("auth_date"), "%d", &authDate); err != nil {
		return 0, fmt.Errorf("%w: missing auth_date", common.ErrValidation)
	}
	if now.Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return 0, fmt.Errorf("%w: init data expired", common.ErrValidation)
	}

	var user webAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return 0, fmt.Errorf("%w: missing user", common.ErrValidation)
	}
	return user.ID, nil
}
