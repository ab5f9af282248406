package registration_test

import (
	"testing"

	"phonogram/internal/registration"
)

func TestMIMEForPath(t *testing.T) {
	cases := map[string]string{
		"/music/first light.mp3": "audio/mpeg",
		"loop.WAV":               "audio/wav",
		"session.flac":           "audio/flac",
		"take.m4a":               "audio/mp4",
		"ambient.ogg":            "audio/ogg",
		"unknown.bin":            "application/octet-stream",
		"noextension":            "application/octet-stream",
	}
	for path, want := range cases {
		if got := registration.MIMEForPath(path); got != want {
			t.Errorf("MIMEForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
