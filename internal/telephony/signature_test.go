package telephony

import (
	"net/url"
	"testing"
)

func TestComputeSignature_ParamOrderIndependent(t *testing.T) {
	u := "https://api.example.com/webhooks/twilio/voice"
	a := url.Values{"CallSid": {"CA1"}, "From": {"+1555"}, "To": {"+1777"}}
	b := url.Values{"To": {"+1777"}, "CallSid": {"CA1"}, "From": {"+1555"}}

	if ComputeSignature("token", u, a) != ComputeSignature("token", u, b) {
		t.Fatalf("signature must not depend on map iteration order")
	}
}

func TestComputeSignature_SensitiveToTokenAndParams(t *testing.T) {
	u := "https://api.example.com/webhooks/twilio/voice"
	form := url.Values{"CallSid": {"CA1"}}

	base := ComputeSignature("token", u, form)
	if ComputeSignature("other-token", u, form) == base {
		t.Fatalf("different token must change signature")
	}
	tampered := url.Values{"CallSid": {"CA2"}}
	if ComputeSignature("token", u, tampered) == base {
		t.Fatalf("different params must change signature")
	}
}

func TestValidateSignature(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}}
	r := postForm(t, "/webhooks/twilio/voice", form)
	if err := r.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}

	base := "https://api.example.com"
	sig := ComputeSignature("token", base+"/webhooks/twilio/voice", r.PostForm)
	r.Header.Set("X-Twilio-Signature", sig)

	if !ValidateSignature(r, "token", base) {
		t.Fatalf("expected valid signature")
	}
	if ValidateSignature(r, "wrong-token", base) {
		t.Fatalf("expected invalid signature for wrong token")
	}

	r.Header.Del("X-Twilio-Signature")
	if ValidateSignature(r, "token", base) {
		t.Fatalf("missing header must fail validation")
	}
}
