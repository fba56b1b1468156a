package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	serverAddress = "http://localhost:8080"
	numBidders    = 4
	bidsPerBidder = 10
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type client struct {
	http  *http.Client
	token string
}

func newClient() *client {
	return &client{http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *client) call(method, path string, body interface{}) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, serverAddress+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return &parsed, nil
}

func (c *client) authenticate(apiKey, apiSecret string) error {
	resp, err := c.call("POST", "/api/v1/auth/token", map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("authentication failed: %s", resp.Error.Message)
	}

	var token struct {
		Token string `json:"jwt_token"`
	}
	if err := json.Unmarshal(resp.Data, &token); err != nil {
		return err
	}
	c.token = token.Token
	return nil
}

// bidderStats tracks outcomes for one simulated bidder
type bidderStats struct {
	accepted int
	rejected map[string]int
}

func main() {
	log.Info().Msg("starting auction simulation")

	admin := newClient()
	if err := admin.authenticate("test-admin-key", "test-admin-secret"); err != nil {
		log.Fatal().Err(err).Msg("admin authentication failed")
	}

	// Seed an auction running now with an anti-snipe window
	storeResp, err := admin.call("POST", "/api/v1/admin/stores", map[string]interface{}{
		"name":           "Simulation Sale",
		"start_datetime": time.Now().Add(-time.Minute),
		"end_datetime":   time.Now().Add(30 * time.Minute),
	})
	if err != nil || !storeResp.Success {
		log.Fatal().Err(err).Msg("failed to create store")
	}
	var store struct {
		StoreID string `json:"store_id"`
	}
	if err := json.Unmarshal(storeResp.Data, &store); err != nil {
		log.Fatal().Err(err).Msg("failed to parse store")
	}

	lotResp, err := admin.call("POST", "/api/v1/admin/lots", map[string]interface{}{
		"store_id":       store.StoreID,
		"lot_number":     1,
		"product_ref":    "SIM-PRODUCT-1",
		"starting_price": "100",
		"start_datetime": time.Now().Add(-time.Minute),
		"end_datetime":   time.Now().Add(30 * time.Minute),
		"bid_incremental_settings": []map[string]string{
			{"from": "0", "to": "500", "increment": "10"},
			{"from": "500", "to": "1000", "increment": "50"},
		},
		"auction_time_settings": map[string]interface{}{
			"extension":      map[string]int{"mins": 5},
			"allow_duration": map[string]int{"mins": 30},
		},
	})
	if err != nil || !lotResp.Success {
		log.Fatal().Err(err).Msg("failed to create lot")
	}
	var lot struct {
		LotID string `json:"lot_id"`
	}
	if err := json.Unmarshal(lotResp.Data, &lot); err != nil {
		log.Fatal().Err(err).Msg("failed to parse lot")
	}

	// Activate the lot for live bidding
	if resp, err := admin.call("PUT", "/api/v1/admin/lots/"+lot.LotID, map[string]string{
		"status": "ACTIVE",
	}); err != nil || !resp.Success {
		log.Fatal().Err(err).Msg("failed to activate lot")
	}

	log.Info().Str("store_id", store.StoreID).Str("lot_id", lot.LotID).Msg("auction seeded")

	// The test customer registers and the admin approves the paddle
	customer := newClient()
	if err := customer.authenticate("test-customer-key", "test-customer-secret"); err != nil {
		log.Fatal().Err(err).Msg("customer authentication failed")
	}

	regResp, err := customer.call("POST", "/api/v1/stores/"+store.StoreID+"/registrations", nil)
	if err != nil || !regResp.Success {
		log.Fatal().Err(err).Msg("failed to submit registration")
	}
	var reg struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(regResp.Data, &reg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse registration")
	}

	if resp, err := admin.call("POST", "/api/v1/admin/registrations/"+reg.RequestID+"/review", map[string]bool{
		"approve": true,
	}); err != nil || !resp.Success {
		log.Fatal().Err(err).Msg("failed to approve registration")
	}

	// Concurrent bidders: the customer bids online, the admin enters
	// competing floor bids on behalf of house customers
	var wg sync.WaitGroup
	statsCh := make(chan bidderStats, numBidders)

	for worker := 0; worker < numBidders; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			stats := bidderStats{rejected: make(map[string]int)}

			amount := decimal.NewFromInt(int64(100 + worker*15))
			for i := 0; i < bidsPerBidder; i++ {
				amount = amount.Add(decimal.NewFromInt(int64(10 + worker*5)))

				var resp *apiResponse
				var err error
				if worker%2 == 0 {
					resp, err = customer.call("POST", "/api/v1/lots/"+lot.LotID+"/bids", map[string]interface{}{
						"amount": amount,
						"type":   "MAX",
					})
				} else {
					resp, err = admin.call("POST", "/api/v1/admin/lots/"+lot.LotID+"/bids", map[string]interface{}{
						"customer_id": fmt.Sprintf("FLOOR-%d", worker),
						"amount":      amount,
						"type":        "DIRECT",
						"channel":     "live",
					})
				}
				if err != nil {
					log.Warn().Err(err).Int("worker", worker).Msg("bid call failed")
					continue
				}

				if resp.Success {
					stats.accepted++
				} else if resp.Error != nil {
					stats.rejected[resp.Error.Code]++
					// Re-offer at the advertised minimum on BID_TOO_LOW
					if resp.Error.Code == "BID_TOO_LOW" {
						var details struct {
							Minimum decimal.Decimal `json:"minimum_acceptable_bid"`
						}
						if json.Unmarshal(resp.Error.Details, &details) == nil && details.Minimum.IsPositive() {
							amount = details.Minimum
						}
					}
				}

				time.Sleep(50 * time.Millisecond)
			}

			statsCh <- stats
		}(worker)
	}

	wg.Wait()
	close(statsCh)

	accepted, rejected := 0, map[string]int{}
	for stats := range statsCh {
		accepted += stats.accepted
		for code, count := range stats.rejected {
			rejected[code] += count
		}
	}

	priceResp, err := customer.call("GET", "/api/v1/lots/"+lot.LotID+"/price", nil)
	if err != nil || !priceResp.Success {
		log.Fatal().Err(err).Msg("failed to fetch final price")
	}
	historyResp, err := customer.call("GET", "/api/v1/lots/"+lot.LotID+"/history", nil)
	if err != nil || !historyResp.Success {
		log.Fatal().Err(err).Msg("failed to fetch history")
	}
	var history []json.RawMessage
	_ = json.Unmarshal(historyResp.Data, &history)

	log.Info().
		Int("bids_accepted", accepted).
		Interface("bids_rejected", rejected).
		Int("history_entries", len(history)).
		RawJSON("final_state", priceResp.Data).
		Msg("simulation complete")
}
