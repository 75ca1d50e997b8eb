package common

import "testing"

func TestSourceURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{"reel", "https://www.instagram.com/reel/Cabc123/", true},
		{"post", "https://instagram.com/p/Cabc123/", true},
		{"tv", "http://m.instagram.com/tv/Cabc123/", true},
		{"profile page", "https://www.instagram.com/someuser/", false},
		{"story", "https://www.instagram.com/stories/u/123/", false},
		{"wrong host", "https://www.tiktok.com/@u/video/1", false},
		{"wrong scheme", "ftp://instagram.com/p/x/", false},
		{"not a url", "not a url at all", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SourceURL("source_url", tt.url)
			if (err == nil) != tt.valid {
				t.Errorf("SourceURL(%q) = %v, want valid=%v", tt.url, err, tt.valid)
			}
		})
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	v := NewValidator().
		Field("source_url", "", Required, SourceURL).
		Field("max_processing_time", -5, PositiveSeconds)
	if !v.HasErrors() {
		t.Fatal("expected errors")
	}
	if len(v.Errors()) != 3 {
		t.Fatalf("got %d errors, want 3", len(v.Errors()))
	}
	if !IsValidation(v.Error()) {
		t.Fatal("combined error is not a validation error")
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator().Field("source_url", "https://instagram.com/p/x/", Required, SourceURL)
	if v.Error() != nil {
		t.Fatalf("unexpected error: %v", v.Error())
	}
}
