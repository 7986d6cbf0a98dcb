package model

// ConnectionStatus is what the HUD knows about the broker link.
// LastMessageTick is only meaningful once SeenConnected is true.
type ConnectionStatus struct {
	Connected       bool
	SeenConnected   bool
	LastMessageTick uint64
}

func (s *ConnectionStatus) SetConnected(ok bool) {
	s.Connected = ok
	if ok {
		s.SeenConnected = true
	}
}

func (s *ConnectionStatus) MarkMessage(tick uint64) {
	s.LastMessageTick = tick
}

// SecondsSinceMessage is (now - LastMessageTick) / rate, truncated.
func (s *ConnectionStatus) SecondsSinceMessage(now uint64, rate int) int {
	if rate <= 0 || now < s.LastMessageTick {
		return 0
	}
	return int((now - s.LastMessageTick) / uint64(rate))
}
