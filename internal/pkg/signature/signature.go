package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// HMACSHA256Hex computes HMAC-SHA256 over msg and returns the lowercase hex digest.
func HMACSHA256Hex(key, msg string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// HMACSHA512Hex computes HMAC-SHA512 over msg and returns the lowercase hex digest.
func HMACSHA512Hex(key, msg string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// SortedQueryString canonicalizes a flat parameter map into the
// sort-and-concatenate form: keys sorted lexicographically, joined as
// key=value pairs with "&". When encode is true the values are
// percent-encoded (outbound signing); when false they are left raw (inbound
// verification). The two call sites genuinely differ and must not be unified.
// Keys with empty values are skipped.
func SortedQueryString(params map[string]string, encode bool) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		if encode {
			b.WriteString(url.QueryEscape(params[k]))
		} else {
			b.WriteString(params[k])
		}
	}
	return b.String()
}

// SignSortedQuery signs a parameter map with HMAC-SHA512 over its
// canonical sorted query string.
func SignSortedQuery(secret string, params map[string]string, encode bool) string {
	return HMACSHA512Hex(secret, SortedQueryString(params, encode))
}

// FixedOrderString builds a signing string from an explicit, provider-documented
// field order: field1=v1&field2=v2&... with values substituted positionally
// and never encoded. fields and values must have equal length; extra values
// are ignored.
func FixedOrderString(fields []string, values map[string]string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f)
		b.WriteByte('=')
		b.WriteString(values[f])
	}
	return b.String()
}

// VerifyHex compares a computed hex digest against a received one in constant
// time. A length mismatch or non-hex input is "not equal", never an error.
func VerifyHex(computed, received string) bool {
	a, err := hex.DecodeString(strings.ToLower(computed))
	if err != nil {
		return false
	}
	b, err := hex.DecodeString(strings.ToLower(received))
	if err != nil {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
