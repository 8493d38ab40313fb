package logger

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		wantErr bool
	}{
		{"development default", "development", "", false},
		{"production info", "production", "info", false},
		{"debug level", "", "debug", false},
		{"bad level", "development", "loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.env, tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && log == nil {
				t.Fatal("New() returned a nil logger")
			}
		})
	}
}

func TestComponentNilLogger(t *testing.T) {
	if Component(nil, "feed") == nil {
		t.Fatal("Component(nil) returned nil")
	}
}
