package signature

import (
	"strings"
	"testing"
)

func TestSortedQueryStringOrdersKeys(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef":  "TB001",
		"vnp_Amount":  "50000000",
		"vnp_Command": "pay",
	}
	got := SortedQueryString(params, false)
	want := "vnp_Amount=50000000&vnp_Command=pay&vnp_TxnRef=TB001"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSortedQueryStringEncodeAsymmetry(t *testing.T) {
	params := map[string]string{"vnp_OrderInfo": "Tour booking #12"}

	raw := SortedQueryString(params, false)
	if raw != "vnp_OrderInfo=Tour booking #12" {
		t.Fatalf("inbound form must keep raw values, got %q", raw)
	}

	encoded := SortedQueryString(params, true)
	if encoded != "vnp_OrderInfo=Tour+booking+%2312" {
		t.Fatalf("outbound form must percent-encode values, got %q", encoded)
	}
	if SignSortedQuery("secret", params, true) == SignSortedQuery("secret", params, false) {
		t.Fatal("encoded and raw canonical forms must sign differently")
	}
}

func TestSortedQueryStringSkipsEmptyValues(t *testing.T) {
	got := SortedQueryString(map[string]string{"a": "1", "b": "", "c": "3"}, false)
	if got != "a=1&c=3" {
		t.Fatalf("expected empty values skipped, got %q", got)
	}
}

func TestFixedOrderString(t *testing.T) {
	fields := []string{"accessKey", "amount", "orderId"}
	values := map[string]string{"amount": "500000", "orderId": "MOMO_TB001_1", "accessKey": "ak"}
	got := FixedOrderString(fields, values)
	if got != "accessKey=ak&amount=500000&orderId=MOMO_TB001_1" {
		t.Fatalf("unexpected fixed-order string %q", got)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	params := map[string]string{"vnp_TxnRef": "TB001", "vnp_Amount": "100"}
	sig := SignSortedQuery("vnpay-secret", params, false)
	if !VerifyHex(SignSortedQuery("vnpay-secret", params, false), sig) {
		t.Fatal("expected signature to verify against itself")
	}

	mac := HMACSHA256Hex("key2", `{"app_trans_id":"260829_1","amount":500000}`)
	if !VerifyHex(HMACSHA256Hex("key2", `{"app_trans_id":"260829_1","amount":500000}`), mac) {
		t.Fatal("expected MAC to verify against itself")
	}
}

func TestVerifyHexRejectsTamperedDigest(t *testing.T) {
	sig := HMACSHA512Hex("secret", "payload")
	for i := 0; i < len(sig); i++ {
		flipped := []byte(sig)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		if VerifyHex(sig, string(flipped)) {
			t.Fatalf("tampered digest at position %d still verified", i)
		}
	}
}

func TestVerifyHexLengthMismatchIsFalse(t *testing.T) {
	sig := HMACSHA256Hex("k", "m")
	if VerifyHex(sig, sig[:len(sig)-2]) {
		t.Fatal("truncated digest must not verify")
	}
	if VerifyHex(sig, "") {
		t.Fatal("empty digest must not verify")
	}
}

func TestVerifyHexMalformedHexIsFalse(t *testing.T) {
	sig := HMACSHA256Hex("k", "m")
	bad := strings.Repeat("zz", len(sig)/2)
	if VerifyHex(sig, bad) {
		t.Fatal("non-hex digest must not verify")
	}
}

func TestVerifyHexIsCaseInsensitive(t *testing.T) {
	sig := HMACSHA512Hex("k", "m")
	if !VerifyHex(sig, strings.ToUpper(sig)) {
		t.Fatal("uppercase digest of same bytes must verify")
	}
}
