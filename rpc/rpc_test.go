package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ava-labs/crank/consts"
	"github.com/ava-labs/crank/crypto/ed25519"
	"github.com/ava-labs/crank/programs/crank"
	"github.com/ava-labs/crank/rpc"
	"github.com/ava-labs/crank/x/programs/program"
	"github.com/ava-labs/crank/x/programs/runtime"
)

var _ = Describe("API", func() {
	var (
		ctx    context.Context
		rt     *runtime.Runtime
		ws     *rpc.WebSocketServer
		srv    *httptest.Server
		client *rpc.JSONRPCClient
	)

	BeforeEach(func() {
		ctx = context.Background()
		reg := prometheus.NewRegistry()

		var err error
		rt, err = runtime.New(logging.NoLog{}, runtime.DefaultConfig(), runtime.WithRegisterer(reg))
		Expect(err).ToNot(HaveOccurred())
		Expect(rt.Register(crank.New())).To(Succeed())

		ws = rpc.NewWebSocketServer(logging.NoLog{}, rt)
		handler, err := rpc.NewHandler(logging.NoLog{}, rpc.DefaultConfig(), rt, ws, reg)
		Expect(err).ToNot(HaveOccurred())
		srv = httptest.NewServer(handler)
		client = rpc.NewJSONRPCClient(srv.URL)
	})

	AfterEach(func() {
		srv.Close()
		ws.Close()
	})

	Describe("JSON-RPC", func() {
		It("answers ping, health and version", func() {
			ok, err := client.Ping(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			healthy, err := client.Health(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(healthy).To(BeTrue())

			name, version, err := client.Version(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(name).To(Equal(consts.Name))
			Expect(version).To(Equal(consts.Version))
		})

		It("lists the registered programs", func() {
			programs, err := client.Programs(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(programs).To(HaveLen(1))
			Expect(programs[0].ID).To(Equal(crank.Address))
			Expect(programs[0].Instructions).To(ConsistOf(rpc.InstructionInfo{
				Name:     "initialize",
				Selector: "afaf6d1f0d989bed",
				Accounts: 0,
			}))
		})

		It("serves the IDL", func() {
			idl, err := client.IDL(ctx, crank.Address)
			Expect(err).ToNot(HaveOccurred())
			Expect(idl.Name).To(Equal("crank"))
			Expect(idl.Metadata.Address).To(Equal(crank.Address))
			Expect(idl.Instructions).To(HaveLen(1))
			Expect(idl.Instructions[0].Name).To(Equal("initialize"))
		})

		It("rejects unknown programs", func() {
			_, err := client.IDL(ctx, "11111111111111111111111111111111")
			Expect(err).To(MatchError(ContainSubstring(rpc.ErrUnknownProgram.Error())))

			_, err = client.SimulateInitialize(ctx, "not-base58-0OIl")
			Expect(err).To(HaveOccurred())
		})

		It("simulates initialize and stores the receipt", func() {
			receipt, err := client.SimulateInitialize(ctx, crank.Address)
			Expect(err).ToNot(HaveOccurred())
			Expect(receipt.Success).To(BeTrue())
			Expect(receipt.Instruction).To(Equal("initialize"))
			Expect(receipt.ProgramLogs).To(Equal([]string{"Greetings from: " + crank.Address}))

			stored, err := client.GetReceipt(ctx, receipt.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(stored).To(Equal(receipt))
		})

		It("sends transactions", func() {
			tx := &runtime.Transaction{Invocation: runtime.Invocation{
				ProgramID: crank.ID,
				Data:      crank.InitializeData(),
			}}
			receipt, err := client.SendTransaction(ctx, tx)
			Expect(err).ToNot(HaveOccurred())
			Expect(receipt.Success).To(BeTrue())
			Expect(receipt.Logs).To(HaveLen(4))
		})

		It("returns host rejections as errors", func() {
			key, err := ed25519.GeneratePrivateKey()
			Expect(err).ToNot(HaveOccurred())
			tx, err := runtime.NewTransaction(runtime.Invocation{
				ProgramID: crank.ID,
				Accounts: []program.AccountMeta{
					{PublicKey: key.PublicKey(), IsSigner: true},
				},
				Data: crank.InitializeData(),
			}, key)
			Expect(err).ToNot(HaveOccurred())

			_, err = client.SendTransaction(ctx, tx)
			Expect(err).To(MatchError(ContainSubstring(program.ErrAccountCountMismatch.Error())))
		})

		It("reports missing receipts", func() {
			_, err := client.GetReceipt(ctx, "missing")
			Expect(err).To(MatchError(ContainSubstring(runtime.ErrNotFound.Error())))
		})
	})

	Describe("HTTP", func() {
		It("serves health", func() {
			resp, err := http.Get(srv.URL + rpc.HealthEndpoint)
			Expect(err).ToNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body map[string]bool
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("healthy", true))
		})

		It("serves metrics", func() {
			_, err := client.SimulateInitialize(ctx, crank.Address)
			Expect(err).ToNot(HaveOccurred())

			resp, err := http.Get(srv.URL + rpc.MetricsEndpoint)
			Expect(err).ToNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("websocket", func() {
		var conn *websocket.Conn

		BeforeEach(func() {
			var err error
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + rpc.WebSocketEndpoint
			conn, _, err = websocket.DefaultDialer.Dial(url, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
		})

		AfterEach(func() {
			conn.Close()
		})

		request := func(id uint64, method string, params any) *rpc.WebSocketResponse {
			raw, err := json.Marshal(params)
			Expect(err).ToNot(HaveOccurred())
			Expect(conn.WriteJSON(&rpc.WebSocketRequest{ID: id, Method: method, Params: raw})).To(Succeed())
			resp := new(rpc.WebSocketResponse)
			Expect(conn.ReadJSON(resp)).To(Succeed())
			Expect(resp.ID).To(Equal(id))
			return resp
		}

		It("pushes receipts to subscribers", func() {
			resp := request(1, rpc.LogsSubscribe, &rpc.SubscribeParams{ProgramID: crank.Address})
			Expect(resp.Error).To(BeNil())
			sub, ok := resp.Result.(string)
			Expect(ok).To(BeTrue())
			Expect(sub).ToNot(BeEmpty())

			receipt, err := client.SimulateInitialize(ctx, crank.Address)
			Expect(err).ToNot(HaveOccurred())

			note := new(rpc.WebSocketNotification)
			Expect(conn.ReadJSON(note)).To(Succeed())
			Expect(note.Method).To(Equal(rpc.LogsNotification))
			Expect(note.Params.Subscription).To(Equal(sub))
			Expect(note.Params.Result).To(Equal(receipt))

			resp = request(2, rpc.LogsUnsubscribe, &rpc.UnsubscribeParams{Subscription: sub})
			Expect(resp.Error).To(BeNil())
			Expect(resp.Result).To(Equal(true))

			resp = request(3, rpc.LogsUnsubscribe, &rpc.UnsubscribeParams{Subscription: sub})
			Expect(resp.Result).To(Equal(false))
		})

		It("disconnects clients on close", func() {
			resp := request(1, rpc.LogsSubscribe, nil)
			Expect(resp.Error).To(BeNil())

			ws.Close()
			_, _, err := conn.ReadMessage()
			Expect(err).To(HaveOccurred())

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + rpc.WebSocketEndpoint
			late, _, err := websocket.DefaultDialer.Dial(url, nil)
			Expect(err).ToNot(HaveOccurred())
			defer late.Close()
			Expect(late.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
			_, _, err = late.ReadMessage()
			Expect(err).To(HaveOccurred())
		})

		It("rejects bad filters and unknown methods", func() {
			resp := request(1, rpc.LogsSubscribe, &rpc.SubscribeParams{ProgramID: "0OIl"})
			Expect(resp.Error).ToNot(BeNil())

			resp = request(2, "accountSubscribe", nil)
			Expect(resp.Error).ToNot(BeNil())
			Expect(resp.Error.Message).To(ContainSubstring("accountSubscribe"))
		})
	})
})
