package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumera/internal/types"
)

func TestIPLocationProvider(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		want    types.Coordinates
		wantErr bool
	}{
		{"latitude longitude", http.StatusOK, `{"ip":"1.2.3.4","latitude":48.8566,"longitude":2.3522}`, types.Coordinates{Latitude: 48.8566, Longitude: 2.3522}, false},
		{"lat lon", http.StatusOK, `{"status":"success","lat":-33.86,"lon":151.2}`, types.Coordinates{Latitude: -33.86, Longitude: 151.2}, false},
		{"missing coordinates", http.StatusOK, `{"status":"fail"}`, types.Coordinates{}, true},
		{"out of range", http.StatusOK, `{"lat":123,"lon":0}`, types.Coordinates{}, true},
		{"upstream down", http.StatusServiceUnavailable, `{}`, types.Coordinates{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			p := NewIPLocationProvider(server.URL, 0, "lumera-test", nil, WithSleepFunc(noSleep))
			got, err := p.Current(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrLocationUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
