// Package exchange provides venue connectors for top-of-book market data.
//
// The Kraken WebSocket feed is a streaming alternative to REST polling: it
// subscribes to the v2 ticker channel and converts every update into a
// validated TopOfBook snapshot. The scanner consumes the stream through a
// latest-book store rather than waiting on fetches.
package exchange

import (
	"context"
	"fmt"
	"time"

	"arbscan/internal/model"
	"arbscan/internal/websocket"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// defaultKrakenWsEndpoint is Kraken's public v2 WebSocket API.
const defaultKrakenWsEndpoint = "wss://ws.kraken.com/v2"

// KrakenBookFeed streams top-of-book snapshots from Kraken's v2 ticker
// channel for a fixed set of pairs.
type KrakenBookFeed struct {
	endpoint string
	symbols  *SymbolTranslator
	validate *validator.Validate
}

// krakenWsMessage is the outer envelope of a v2 channel message.
type krakenWsMessage struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

// krakenWsTicker is one ticker entry. Kraken v2 sends JSON numbers; they
// are decoded as json.Number and converted to decimal without passing
// through float64.
type krakenWsTicker struct {
	Symbol string      `json:"symbol" validate:"required"`
	Bid    json.Number `json:"bid" validate:"required"`
	BidQty json.Number `json:"bid_qty" validate:"required"`
	Ask    json.Number `json:"ask" validate:"required"`
	AskQty json.Number `json:"ask_qty" validate:"required"`
}

// krakenWsSubscribe is the v2 subscription request for the ticker channel.
type krakenWsSubscribe struct {
	Method string `json:"method"`
	Params struct {
		Channel string   `json:"channel"`
		Symbol  []string `json:"symbol"`
	} `json:"params"`
}

// NewKrakenBookFeed creates a ticker feed for Kraken's v2 WebSocket API.
// An empty endpoint selects the public production endpoint.
func NewKrakenBookFeed(endpoint string) *KrakenBookFeed {
	if endpoint == "" {
		endpoint = defaultKrakenWsEndpoint
	}
	return &KrakenBookFeed{
		endpoint: endpoint,
		symbols:  KrakenWsSymbols(),
		validate: validator.New(),
	}
}

// Venue returns the feed's venue identifier.
func (f *KrakenBookFeed) Venue() model.Venue { return model.VenueKraken }

// SubscribeToBooks connects to the v2 WebSocket API, subscribes to the
// ticker channel for the given pairs, and returns a channel of validated
// snapshots. The channel is closed when the connection ends.
func (f *KrakenBookFeed) SubscribeToBooks(ctx context.Context, pairs []model.CanonicalPair) (<-chan model.TopOfBook, error) {
	symbols := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		sym, err := f.symbols.ToVenueSymbol(pair)
		if err != nil {
			log.Warn().Str("pair", pair.String()).Msg("skipping unsupported canonical pair for Kraken WS")
			continue
		}
		symbols = append(symbols, sym)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no subscribable pairs for Kraken WS feed (supported: %v)",
			f.symbols.SupportedPairs())
	}

	var sub krakenWsSubscribe
	sub.Method = "subscribe"
	sub.Params.Channel = "ticker"
	sub.Params.Symbol = symbols

	subMsg, err := json.Marshal(&sub)
	if err != nil {
		return nil, fmt.Errorf("marshal subscription: %w", err)
	}

	client, err := websocket.NewClient(ctx, websocket.Config{
		Endpoint:             f.endpoint,
		Handler:              f.handleMessage,
		SubscriptionMessages: [][]byte{subMsg},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create Kraken WebSocket client")
		return nil, err
	}

	go logDisconnect(client)

	return client.BookChan, nil
}

// logDisconnect waits for the connection to drop and logs the terminal
// error, if the client reported one.
func logDisconnect(client *websocket.Client) {
	<-client.DisconnectChan()
	select {
	case err := <-client.ErrChan():
		log.Warn().Err(err).Msg("Kraken WS connection lost")
	default:
		log.Warn().Msg("Kraken WS connection lost")
	}
}

// handleMessage processes one raw WebSocket message and pushes any ticker
// entries it carries onto the book channel. Non-ticker messages
// (heartbeats, subscription acks) are ignored.
func (f *KrakenBookFeed) handleMessage(raw []byte, bookChan chan<- model.TopOfBook) error {
	var msg krakenWsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error().Err(err).Msg("invalid Kraken WS JSON")
		return err
	}

	if msg.Channel != "ticker" || len(msg.Data) == 0 {
		return nil
	}

	var tickers []krakenWsTicker
	if err := json.Unmarshal(msg.Data, &tickers); err != nil {
		log.Error().Err(err).Msg("invalid Kraken WS ticker payload")
		return err
	}

	tsLocalMs := time.Now().UnixMilli()
	for _, t := range tickers {
		if err := f.validate.Struct(&t); err != nil {
			log.Warn().Err(err).Str("symbol", t.Symbol).Msg("Kraken WS ticker validation failed")
			continue
		}

		tob, err := f.tickerToTopOfBook(t, tsLocalMs)
		if err != nil {
			log.Warn().Err(err).Str("symbol", t.Symbol).Msg("skipping invalid Kraken WS ticker")
			continue
		}
		bookChan <- tob
	}

	return nil
}

func (f *KrakenBookFeed) tickerToTopOfBook(t krakenWsTicker, tsLocalMs int64) (model.TopOfBook, error) {
	pair, err := f.symbols.ToCanonical(t.Symbol)
	if err != nil {
		return model.TopOfBook{}, err
	}

	bidPx, err := decimal.NewFromString(t.Bid.String())
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("bid price: %w", err)
	}
	bidSz, err := decimal.NewFromString(t.BidQty.String())
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("bid size: %w", err)
	}
	askPx, err := decimal.NewFromString(t.Ask.String())
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("ask price: %w", err)
	}
	askSz, err := decimal.NewFromString(t.AskQty.String())
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("ask size: %w", err)
	}

	// The v2 ticker carries no event timestamp.
	return model.NewTopOfBook(model.VenueKraken, pair, tsLocalMs, 0, bidPx, bidSz, askPx, askSz)
}
