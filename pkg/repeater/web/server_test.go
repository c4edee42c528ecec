package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sa7bnb/repeater/pkg/repeater"
)

type fakeController struct {
	status     repeater.Status
	inVol      float64
	outVol     float64
	idEnabled  *bool
	idInterval time.Duration
	announced  int
	busy       bool
}

func (f *fakeController) Status() repeater.Status       { return f.status }
func (f *fakeController) SetInputVolume(v float64)      { f.inVol = v }
func (f *fakeController) SetOutputVolume(v float64)     { f.outVol = v }
func (f *fakeController) SetIDEnabled(e bool)           { f.idEnabled = &e }
func (f *fakeController) SetIDInterval(d time.Duration) { f.idInterval = d }

func (f *fakeController) Announce() error {
	if f.busy {
		return repeater.ErrBusy
	}
	f.announced++
	return nil
}

func newTestServer(t *testing.T, ctrl *fakeController) *httptest.Server {
	t.Helper()
	s := NewServer(0, ctrl, zerolog.Nop())
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestStatusEndpoint(t *testing.T) {
	ctrl := &fakeController{status: repeater.Status{
		State:         "idle",
		InputVolume:   1.0,
		OutputVolume:  1.2,
		IDClipPresent: true,
	}}
	ts := newTestServer(t, ctrl)

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st repeater.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.State != "idle" || st.OutputVolume != 1.2 || !st.IDClipPresent {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestVolumeEndpoint(t *testing.T) {
	ctrl := &fakeController{}
	ts := newTestServer(t, ctrl)

	resp, err := http.Post(ts.URL+"/api/volume", "application/json",
		strings.NewReader(`{"input": 0.5, "output": 1.5}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if ctrl.inVol != 0.5 || ctrl.outVol != 1.5 {
		t.Errorf("volumes = %f/%f, want 0.5/1.5", ctrl.inVol, ctrl.outVol)
	}
}

func TestIDEndpoint(t *testing.T) {
	ctrl := &fakeController{}
	ts := newTestServer(t, ctrl)

	resp, err := http.Post(ts.URL+"/api/id", "application/json",
		strings.NewReader(`{"enabled": false, "interval": 300, "trigger": true}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if ctrl.idEnabled == nil || *ctrl.idEnabled {
		t.Error("enabled flag not applied")
	}
	if ctrl.idInterval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", ctrl.idInterval)
	}
	if ctrl.announced != 1 {
		t.Errorf("announced = %d, want 1", ctrl.announced)
	}
}

func TestIDTriggerWhileBusy(t *testing.T) {
	ctrl := &fakeController{busy: true}
	ts := newTestServer(t, ctrl)

	resp, err := http.Post(ts.URL+"/api/id", "application/json",
		strings.NewReader(`{"trigger": true}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestBadVolumePayload(t *testing.T) {
	ctrl := &fakeController{}
	ts := newTestServer(t, ctrl)

	resp, err := http.Post(ts.URL+"/api/volume", "application/json",
		strings.NewReader(`{broken`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
