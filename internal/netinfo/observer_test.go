package netinfo

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeSource struct {
	handler      Handler
	subscribes   int
	unsubscribes int
	subscribeErr error
}

func (s *fakeSource) Subscribe(h Handler) error {
	if s.subscribeErr != nil {
		return s.subscribeErr
	}
	s.subscribes++
	s.handler = h
	return nil
}

func (s *fakeSource) Unsubscribe() error {
	s.unsubscribes++
	s.handler = nil
	return nil
}

// deliver simulates the host firing a notification.
func (s *fakeSource) deliver(kind string) {
	if s.handler != nil {
		s.handler(Notification{Kind: kind, At: time.Now()})
	}
}

type fakeHost struct {
	info NetworkInfo
	err  error
}

func (h *fakeHost) Query() (NetworkInfo, error) {
	return h.info, h.err
}

type recordingOwner struct {
	published []Descriptor
	signals   int
}

func (o *recordingOwner) Publish(d Descriptor) {
	o.published = append(o.published, d)
}

func (o *recordingOwner) SignalPermissionUnavailable() {
	o.signals++
}

func (o *recordingOwner) last() Descriptor {
	return o.published[len(o.published)-1]
}

func newTestObserver(info NetworkInfo) (*Observer, *fakeSource, *fakeHost, *recordingOwner) {
	src := &fakeSource{}
	host := &fakeHost{info: info}
	owner := &recordingOwner{}
	return NewObserver(src, host, owner, nil), src, host, owner
}

func connected(coarse CoarseType) NetworkInfo {
	return NetworkInfo{Active: true, Connected: true, Coarse: coarse}
}

func TestDescribeMapping(t *testing.T) {
	tests := []struct {
		coarse CoarseType
		want   ConnectionType
	}{
		{CoarseWifi, TypeWifi},
		{CoarseMobile, TypeCellular},
		{CoarseMobileDUN, TypeCellular},
		{CoarseBluetooth, TypeBluetooth},
		{CoarseEthernet, TypeEthernet},
		{CoarseWimax, TypeWimax},
		{CoarseVPN, TypeVPN},
		{CoarseType("satellite"), TypeOther},
		{CoarseType(""), TypeOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.coarse), func(t *testing.T) {
			got := Describe(connected(tt.coarse))
			if got.Type != tt.want {
				t.Errorf("Describe(%q).Type = %q, want %q", tt.coarse, got.Type, tt.want)
			}
		})
	}
}

func TestDescribeNotConnected(t *testing.T) {
	coarse := []CoarseType{CoarseWifi, CoarseMobile, CoarseEthernet, CoarseVPN, "bogus"}
	for _, c := range coarse {
		for _, info := range []NetworkInfo{
			{Active: false, Connected: true, Coarse: c},
			{Active: true, Connected: false, Coarse: c},
			{Active: false, Connected: false, Coarse: c, CellularDetail: "LTE"},
		} {
			got := Describe(info)
			if got != (Descriptor{Type: TypeNone}) {
				t.Errorf("Describe(%+v) = %v, want none", info, got)
			}
		}
	}
}

func TestDescribeCellularGeneration(t *testing.T) {
	tests := []struct {
		detail string
		want   CellularGeneration
	}{
		{"EDGE", Generation2G},
		{"umts", Generation3G},
		{"HSPAP", Generation3G},
		{"LTE", Generation4G},
		{" nr ", Generation5G},
		{"", ""},
		{"TD_SCDMA_FUTURE", ""},
	}

	for _, tt := range tests {
		info := connected(CoarseMobile)
		info.CellularDetail = tt.detail
		got := Describe(info)
		if got.CellularGeneration != tt.want {
			t.Errorf("detail %q: generation = %q, want %q", tt.detail, got.CellularGeneration, tt.want)
		}
	}
}

func TestDescribeGenerationOnlyForCellular(t *testing.T) {
	for _, c := range []CoarseType{CoarseWifi, CoarseEthernet, CoarseBluetooth, CoarseVPN, "other"} {
		info := connected(c)
		info.CellularDetail = "LTE"
		if got := Describe(info); got.CellularGeneration != "" {
			t.Errorf("Describe(%q) generation = %q, want absent", c, got.CellularGeneration)
		}
	}
}

func TestRegisterPublishesImmediately(t *testing.T) {
	info := connected(CoarseMobile)
	info.CellularDetail = "LTE"
	o, src, _, owner := newTestObserver(info)

	if err := o.Register(); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if src.subscribes != 1 {
		t.Errorf("subscribes = %d, want 1", src.subscribes)
	}
	if o.State() != Registered {
		t.Errorf("State() = %v, want registered", o.State())
	}
	if len(owner.published) != 1 {
		t.Fatalf("published %d descriptors, want 1", len(owner.published))
	}
	want := Descriptor{Type: TypeCellular, CellularGeneration: Generation4G}
	if owner.last() != want {
		t.Errorf("last published = %v, want %v", owner.last(), want)
	}
}

func TestRegisterSubscribeError(t *testing.T) {
	o, src, _, owner := newTestObserver(connected(CoarseWifi))
	src.subscribeErr = errors.New("boom")

	if err := o.Register(); err == nil {
		t.Fatal("Register() should fail when subscribe fails")
	}
	if o.State() != Unregistered {
		t.Errorf("State() = %v, want unregistered", o.State())
	}
	if len(owner.published) != 0 {
		t.Errorf("published %d descriptors, want 0", len(owner.published))
	}
}

func TestDoubleRegisterSubscribesTwice(t *testing.T) {
	o, src, _, owner := newTestObserver(connected(CoarseWifi))

	o.Register()
	o.Register()

	if src.subscribes != 2 {
		t.Errorf("subscribes = %d, want 2", src.subscribes)
	}
	if len(owner.published) != 2 {
		t.Errorf("published = %d, want 2", len(owner.published))
	}
}

func TestUnregisterWhenNotRegistered(t *testing.T) {
	o, src, _, _ := newTestObserver(connected(CoarseWifi))

	if err := o.Unregister(); err != nil {
		t.Fatalf("Unregister() error: %v", err)
	}
	if src.unsubscribes != 0 {
		t.Errorf("unsubscribes = %d, want 0", src.unsubscribes)
	}
	if o.State() != Unregistered {
		t.Errorf("State() = %v, want unregistered", o.State())
	}
}

func TestUnregisterAfterRegister(t *testing.T) {
	o, src, _, _ := newTestObserver(connected(CoarseWifi))
	o.Register()

	if err := o.Unregister(); err != nil {
		t.Fatalf("Unregister() error: %v", err)
	}
	if src.unsubscribes != 1 {
		t.Errorf("unsubscribes = %d, want 1", src.unsubscribes)
	}
	if o.State() != Unregistered {
		t.Errorf("State() = %v, want unregistered", o.State())
	}

	// Second unregister is a no-op.
	o.Unregister()
	if src.unsubscribes != 1 {
		t.Errorf("unsubscribes after second Unregister = %d, want 1", src.unsubscribes)
	}
}

func TestNotificationRecomputes(t *testing.T) {
	o, src, host, owner := newTestObserver(connected(CoarseWifi))
	o.Register()

	host.info = connected(CoarseEthernet)
	src.deliver(KindConnectivityChange)

	if len(owner.published) != 2 {
		t.Fatalf("published = %d, want 2", len(owner.published))
	}
	if owner.last().Type != TypeEthernet {
		t.Errorf("last published = %v, want ethernet", owner.last())
	}
}

func TestNotificationOtherKindIgnored(t *testing.T) {
	o, src, _, owner := newTestObserver(connected(CoarseWifi))
	o.Register()

	src.deliver(KindPollTick)
	src.deliver(KindNetlinkOther)
	src.deliver("android.intent.action.AIRPLANE_MODE")

	if len(owner.published) != 1 {
		t.Errorf("published = %d, want 1 (only the register publish)", len(owner.published))
	}
}

func TestNotificationWhileUnregisteredIgnored(t *testing.T) {
	o, _, _, owner := newTestObserver(connected(CoarseWifi))

	o.OnNotification(Notification{Kind: KindConnectivityChange})

	if len(owner.published) != 0 {
		t.Errorf("published = %d, want 0", len(owner.published))
	}
}

func TestDuplicateNotificationsNotDeduplicated(t *testing.T) {
	o, src, _, owner := newTestObserver(connected(CoarseWifi))
	o.Register()

	src.deliver(KindConnectivityChange)
	src.deliver(KindConnectivityChange)

	if len(owner.published) != 3 {
		t.Fatalf("published = %d, want 3", len(owner.published))
	}
	if owner.published[1] != owner.published[2] {
		t.Errorf("duplicate deliveries published %v and %v, want identical", owner.published[1], owner.published[2])
	}
}

func TestPermissionDeniedDuringNotification(t *testing.T) {
	o, src, host, owner := newTestObserver(connected(CoarseWifi))
	o.Register()

	host.err = fmt.Errorf("reading route table: %w", ErrPermissionDenied)
	src.deliver(KindConnectivityChange)

	if len(owner.published) != 2 {
		t.Fatalf("published = %d, want 2", len(owner.published))
	}
	if owner.last() != (Descriptor{Type: TypeUnknown}) {
		t.Errorf("last published = %v, want unknown", owner.last())
	}
	if owner.signals != 1 {
		t.Errorf("signals = %d, want 1", owner.signals)
	}
	if o.State() != Registered {
		t.Errorf("State() = %v, want registered", o.State())
	}

	// Each denied query signals again; nothing is cached.
	src.deliver(KindConnectivityChange)
	if owner.signals != 2 {
		t.Errorf("signals after second denial = %d, want 2", owner.signals)
	}
}

func TestPermissionDeniedOnRegister(t *testing.T) {
	o, _, host, owner := newTestObserver(NetworkInfo{})
	host.err = ErrPermissionDenied

	if err := o.Register(); err != nil {
		t.Fatalf("Register() should not propagate permission errors, got %v", err)
	}
	if owner.signals != 1 {
		t.Errorf("signals = %d, want 1", owner.signals)
	}
	if owner.last().Type != TypeUnknown {
		t.Errorf("last published = %v, want unknown", owner.last())
	}
}

func TestOtherQueryErrorDegradesWithoutSignal(t *testing.T) {
	o, _, host, owner := newTestObserver(NetworkInfo{})
	host.err = errors.New("netlink: device busy")

	o.Register()

	if owner.signals != 0 {
		t.Errorf("signals = %d, want 0", owner.signals)
	}
	if owner.last().Type != TypeUnknown {
		t.Errorf("last published = %v, want unknown", owner.last())
	}
}

func TestStateString(t *testing.T) {
	if Registered.String() != "registered" || Unregistered.String() != "unregistered" {
		t.Errorf("unexpected state strings: %q %q", Registered, Unregistered)
	}
	if got := State(7).String(); got != "State(7)" {
		t.Errorf("State(7).String() = %q", got)
	}
}

func TestDescriptorIsConnected(t *testing.T) {
	tests := []struct {
		d    Descriptor
		want bool
	}{
		{Descriptor{Type: TypeNone}, false},
		{Descriptor{Type: TypeUnknown}, false},
		{Descriptor{Type: TypeWifi}, true},
		{Descriptor{Type: TypeOther}, true},
		{Descriptor{Type: TypeCellular, CellularGeneration: Generation3G}, true},
	}
	for _, tt := range tests {
		if got := tt.d.IsConnected(); got != tt.want {
			t.Errorf("%v.IsConnected() = %v, want %v", tt.d, got, tt.want)
		}
	}
}
