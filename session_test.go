package debugirc

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// startTestServer brings up a server on an ephemeral port with the
// canonical debug deployment: #system (auto-joined) and #debug.
func startTestServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()

	base := []Option{
		WithChannel("#system", "System channel"),
		WithChannel("#debug", "DEBUG"),
		WithAutoJoin("#system"),
		WithLogger(newTestLogger()),
	}

	server, err := NewServer(append(base, opts...)...)
	require.NoError(t, err)

	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go server.Serve(listen)
	t.Cleanup(server.Shutdown)

	return server, listen.Addr().String()
}

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialTestServer(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (client *testClient) sendLine(line string) {
	client.t.Helper()
	_, err := fmt.Fprintf(client.conn, "%s\r\n", line)
	require.NoError(client.t, err)
}

func (client *testClient) readLine() (string, error) {
	client.t.Helper()
	require.NoError(client.t, client.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return client.reader.ReadString('\n')
}

func (client *testClient) expectLine(want string) {
	client.t.Helper()
	line, err := client.readLine()
	require.NoError(client.t, err)
	assert.Equal(client.t, want+"\n", line)
}

func (client *testClient) expectClosed() {
	client.t.Helper()
	line, err := client.readLine()
	require.Error(client.t, err)
	assert.Empty(client.t, line)
}

// register runs the happy registration exchange and consumes the
// welcome banner plus the auto-join echo.
func (client *testClient) register(nick string) {
	client.t.Helper()

	client.sendLine("NICK " + nick)
	client.sendLine("PASS secret")
	client.sendLine("USER " + nick + " 0 * :" + nick)

	client.expectLine(fmt.Sprintf(":debugirc 001 %s :Hi %s", nick, nick))
	client.expectLine(fmt.Sprintf(":debugirc 002 %s :Your host is debugirc, running version 0.0.0", nick))
	client.expectLine(fmt.Sprintf(":debugirc 003 %s :This server was created 0", nick))
	client.expectLine(fmt.Sprintf(":debugirc 004 %s :debugirc 0.0.0 - n", nick))
	client.expectLine(fmt.Sprintf(":debugirc 375 %s :- debugirc DebugIRC -", nick))
	client.expectLine(fmt.Sprintf(":debugirc 372 %s :- This is debug irc interface for logging and similar tasks", nick))
	client.expectLine(fmt.Sprintf(":%s!%s JOIN #system :#system", nick, nick))
}

func TestRegistrationWelcome(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)

	client.register("alice")
}

func TestRejectEmptyNick(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)

	client.sendLine("NICK ")
	client.sendLine("USER a 0 * :a")

	client.expectClosed()
}

func TestUnknownCommand(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("FROB foo")
	client.expectLine(":debugirc 421 alice FROB :Command FROB is unknown or unsupported")
}

func TestUnknownCommandBeforeRegistration(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)

	client.sendLine("FROB foo")
	client.expectLine(":debugirc 421  FROB :Command FROB is unknown or unsupported")
}

func TestListChannels(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("LIST")

	client.expectLine(":debugirc 321 alice Channel :Users  Name")

	// Channel order is unspecified.
	first, err := client.readLine()
	require.NoError(t, err)
	second, err := client.readLine()
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{
			":debugirc 322 alice #system 999 :System channel\n",
			":debugirc 322 alice #debug 999 :DEBUG\n",
		},
		[]string{first, second})

	client.expectLine(":debugirc 323 alice :End of /LIST")
}

func TestWho(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("WHO #system")
	client.expectLine(":debugirc 315 alice #system :End of /WHO list.")
}

func TestPingRoundTrip(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("PING 12345")
	client.expectLine(":debugirc PONG debugirc :12345")
}

func TestJoinSemantics(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("JOIN #debug")
	client.expectLine(":alice!alice JOIN #debug :#debug")

	// Joining again echoes the same line.
	client.sendLine("JOIN #debug")
	client.expectLine(":alice!alice JOIN #debug :#debug")

	client.sendLine("JOIN #ghost")
	client.expectLine(":alice 403 #ghost :No such channel")

	client.sendLine("JOIN nodash")
	client.expectLine(":alice 403 nodash :No such channel")
}

func TestPartSemantics(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("JOIN #debug")
	client.expectLine(":alice!alice JOIN #debug :#debug")

	client.sendLine("PART #debug :bye now")
	client.expectLine(":alice!alice PART #debug :bye now")

	client.sendLine("JOIN #debug")
	client.expectLine(":alice!alice JOIN #debug :#debug")

	client.sendLine("PART #debug")
	client.expectLine(":alice!alice PART #debug")

	// A channel token not beginning with '#' is the only PART error.
	client.sendLine("PART nodash")
	client.expectLine(":alice 403 nodash :No such channel")
}

func TestChannelFanOut(t *testing.T) {
	server, addr := startTestServer(t)

	alice := dialTestServer(t, addr)
	alice.register("alice")
	alice.sendLine("JOIN #debug")
	alice.expectLine(":alice!alice JOIN #debug :#debug")

	bob := dialTestServer(t, addr)
	bob.register("bob")
	bob.sendLine("JOIN #debug")
	bob.expectLine(":bob!bob JOIN #debug :#debug")

	server.Chat().DeliverChannel("#debug", "hello")

	alice.expectLine(":debugirc PRIVMSG #debug :hello")
	bob.expectLine(":debugirc PRIVMSG #debug :hello")
}

func TestDeliveryOrder(t *testing.T) {
	server, addr := startTestServer(t)

	client := dialTestServer(t, addr)
	client.register("alice")
	client.sendLine("JOIN #debug")
	client.expectLine(":alice!alice JOIN #debug :#debug")

	const count = 50
	for i := 0; i < count; i++ {
		server.Chat().DeliverChannel("#debug", fmt.Sprintf("msg-%d", i))
	}

	for i := 0; i < count; i++ {
		client.expectLine(fmt.Sprintf(":debugirc PRIVMSG #debug :msg-%d", i))
	}
}

func TestPrivMsgHandler(t *testing.T) {
	var mu sync.Mutex
	var gotUsername, gotChannel, gotText string

	handler := MessageHandlerFunc(func(username, channel, text string, send SendCallback) {
		mu.Lock()
		gotUsername, gotChannel, gotText = username, channel, text
		mu.Unlock()

		send("echo:" + text)
		send("done")
	})

	_, addr := startTestServer(t, WithMessageHandler(handler))
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("PRIVMSG #debug :hi there")
	client.expectLine(":debugirc PRIVMSG #debug :echo:hi there")
	client.expectLine(":debugirc PRIVMSG #debug :done")

	mu.Lock()
	assert.Equal(t, "alice", gotUsername)
	assert.Equal(t, "#debug", gotChannel)
	assert.Equal(t, "hi there", gotText)
	mu.Unlock()

	// Malformed targets are dropped without a reply.
	client.sendLine("PRIVMSG nochannel :hi")
	client.sendLine("PRIVMSG #debug")
	client.sendLine("PING sentinel")
	client.expectLine(":debugirc PONG debugirc :sentinel")
}

func TestModeAndNoticeIgnored(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("MODE alice +i")
	client.sendLine("NOTICE #system :psst")
	client.sendLine("PING sentinel")
	client.expectLine(":debugirc PONG debugirc :sentinel")
}

func TestQuitClosesConnection(t *testing.T) {
	_, addr := startTestServer(t)
	client := dialTestServer(t, addr)
	client.register("alice")

	client.sendLine("QUIT :bye")
	client.expectClosed()
}

func TestRegistrationTimeout(t *testing.T) {
	_, addr := startTestServer(t, WithRegisterTimeout(150*time.Millisecond))
	client := dialTestServer(t, addr)

	client.expectLine("ERROR: registration timeout")
	client.expectClosed()
}

func TestLivenessProbeTimeout(t *testing.T) {
	_, addr := startTestServer(t,
		WithPingInterval(200*time.Millisecond),
		WithPingGrace(150*time.Millisecond))

	client := dialTestServer(t, addr)
	client.register("alice")

	client.expectLine("PING :debugirc")
	client.expectLine("ERROR: connection timeout")
	client.expectClosed()
}

func TestLivenessProbeAnswered(t *testing.T) {
	_, addr := startTestServer(t,
		WithPingInterval(200*time.Millisecond),
		WithPingGrace(150*time.Millisecond))

	client := dialTestServer(t, addr)
	client.register("alice")

	client.expectLine("PING :debugirc")
	client.sendLine("PONG :debugirc")

	// Answering the probe re-arms the idle timer, so the next firing
	// is another probe rather than a teardown.
	client.expectLine("PING :debugirc")
}

func TestCleanupIdempotent(t *testing.T) {
	chat := NewChat()
	chat.logger = newTestLogger()
	chat.AddChannel("#ops", "Operations")

	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()

	sess := NewSession(chat, serverEnd)
	sess.Start()

	require.True(t, chat.JoinChannel("#ops", sess))
	sess.Lock()
	sess.activeChannels["#ops"] = struct{}{}
	sess.Unlock()

	sess.Cleanup()

	// The hub and channel no longer hold the session: joining again
	// succeeds because the membership was cleared.
	assert.True(t, chat.JoinChannel("#ops", sess))
	chat.LeaveChannel("#ops", sess)

	sess.Cleanup() // no-op
	assert.False(t, sess.running())
}

func TestDeliverDropsEmptyMessages(t *testing.T) {
	chat := NewChat()
	chat.logger = newTestLogger()

	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	sess := NewSession(chat, serverEnd)

	sess.Deliver(nil)
	sess.Deliver(NewMessage(""))

	sess.writeSync.Lock()
	defer sess.writeSync.Unlock()
	assert.Empty(t, sess.writeQueue)
}
