package rfb

import "testing"

func TestChooseAuthTypeDefaultsToStrongest(t *testing.T) {
	got, err := chooseAuthType([]AuthType{AuthNone, AuthVNC, AuthARD}, AuthInvalid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != AuthARD {
		t.Errorf("got %v, want AuthARD", got)
	}
}

func TestChooseAuthTypeHonorsPreferenceWhenOffered(t *testing.T) {
	got, err := chooseAuthType([]AuthType{AuthNone, AuthVNC, AuthARD}, AuthVNC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != AuthVNC {
		t.Errorf("got %v, want AuthVNC (preferred)", got)
	}
}

func TestChooseAuthTypeIgnoresPreferenceWhenNotOffered(t *testing.T) {
	got, err := chooseAuthType([]AuthType{AuthNone, AuthVNC}, AuthARD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != AuthVNC {
		t.Errorf("got %v, want AuthVNC (fallback strongest offered)", got)
	}
}

func TestChooseAuthTypeErrorsWhenNoneSupported(t *testing.T) {
	_, err := chooseAuthType([]AuthType{99}, AuthInvalid)
	if err == nil {
		t.Fatal("expected error for unsupported security types")
	}
}
