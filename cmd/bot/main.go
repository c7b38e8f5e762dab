package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"boneyard.bar/internal/protocol"
)

// A small autoplayer: taps, sells when the tank is worth emptying, buys the
// cheapest affordable upgrade and answers quests with the first choice.
func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "client name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s tick_rate=%d seed=%d", w.SessionID, w.BarParams.TickRateHz, w.BarParams.Seed)
			if w.OfflineReport != nil {
				logger.Printf("offline credit: %.0f minutes, +%.0f cl", w.OfflineReport.Minutes, w.OfflineReport.BeerCredited)
			}

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			handleState(conn, logger, &st)

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			if !ack.Accepted && ack.Code != protocol.ErrNoBeer {
				logger.Printf("rejected %s: %s %s", ack.AckFor, ack.Code, ack.Message)
			}
		}
	}
}

func handleState(conn *websocket.Conn, logger *log.Logger, st *protocol.StateMsg) {
	send := func(cmd protocol.CmdMsg) {
		cmd.Type = protocol.TypeCmd
		cmd.ProtocolVersion = protocol.Version
		cmd.ReqID = fmt.Sprintf("bot_%d_%s", st.Tick, cmd.Cmd)
		_ = conn.WriteJSON(cmd)
	}

	// Answer whatever is on screen first; one command per frame keeps the
	// ack handling simple.
	if st.MoralEvent != nil {
		send(protocol.CmdMsg{Cmd: protocol.CmdMoralChoice, Choice: 0})
		return
	}
	if st.Quest != nil {
		send(protocol.CmdMsg{Cmd: protocol.CmdQuestChoice, Choice: 0})
		return
	}

	for _, p := range st.Patrons {
		if p.Opportunity != "" && !p.Walking {
			send(protocol.CmdMsg{Cmd: protocol.CmdClickPatron, PatronID: p.ID})
			return
		}
	}

	// Sell a full pour batch once the tank holds one.
	if st.Stats.DrinkCapacity > 0 && st.Bar.Beer >= st.Stats.DrinkCapacity*6 {
		send(protocol.CmdMsg{Cmd: protocol.CmdSell})
		return
	}

	// Buy the cheapest affordable upgrade, but keep a cash buffer for costs.
	if st.Tick%50 == 0 {
		best := ""
		bestCost := 0.0
		for _, u := range st.Upgrades {
			if u.Maxed || u.NextCost <= 0 {
				continue
			}
			if u.NextCost*1.5 > st.Bar.Money {
				continue
			}
			if best == "" || u.NextCost < bestCost {
				best = u.ID
				bestCost = u.NextCost
			}
		}
		if best != "" {
			logger.Printf("buying %s for %.2f (money %.2f)", best, bestCost, st.Bar.Money)
			send(protocol.CmdMsg{Cmd: protocol.CmdBuyUpgrade, UpgradeID: best})
			return
		}
	}

	// Keep tapping in between.
	if st.Tick%10 == 0 {
		send(protocol.CmdMsg{Cmd: protocol.CmdTap})
	}
}
