package strat

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusFrame(t *testing.T) {
	frame, err := parseStatusFrame([]byte("9,100.5,200,1.57,350,0.1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess|OutcomeObstacle, frame.flags)
	assert.Equal(t, Point{X: 100.5, Y: 200}, frame.pos)
	assert.Equal(t, 1.57, frame.heading)
	assert.Equal(t, 350.0, frame.vt)
	assert.Equal(t, 0.1, frame.vr)
}

func TestParseStatusFrameRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"1,2,3",
		"x,1,2,3,4,5",
		"1,a,2,3,4,5",
		"1,2,3,4,5,6,7",
	}
	for _, c := range cases {
		_, err := parseStatusFrame([]byte(c))
		assert.Error(t, err, "payload %q", c)
	}
}

func TestBridgeLoopback(t *testing.T) {
	board, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer board.Close()

	bridge, err := DialBridge(BridgeConfig{
		CommandAddr: board.LocalAddr().String(),
		StatusAddr:  "127.0.0.1:0",
	})
	require.NoError(t, err)
	defer bridge.Close()

	bridge.GotoXY(Point{X: 900, Y: 550})
	require.NoError(t, board.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 256)
	n, _, err := board.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "goto,900.0,550.0", string(buf[:n]))

	// Stream a status frame back and watch the poll surface pick it up.
	statusAddr := bridge.status.LocalAddr().(*net.UDPAddr)
	_, err = board.WriteToUDP([]byte("1,900,550,0,0,0"), statusAddr)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bridge.Status() == OutcomeSuccess
	}, 2*time.Second, 10*time.Millisecond)
	pos, _ := bridge.Position()
	assert.Equal(t, Point{X: 900, Y: 550}, pos)
}
