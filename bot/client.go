package bot

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const DefaultRequestTimeout = 10 * time.Second

// Requester is the part of a NATS connection the client needs.
// *nats.Conn satisfies it.
type Requester interface {
	Request(subj string, data []byte, timeout time.Duration) (*nats.Msg, error)
	LastError() error
}

type Client struct {
	// NATS connection
	nc      Requester
	channel string
	timeout time.Duration
}

func NewClient(nc Requester, channel string) *Client {
	return &Client{nc: nc, channel: channel, timeout: DefaultRequestTimeout}
}

func (c *Client) SetTimeout(d time.Duration) { c.timeout = d }

// Analyze sends req to the bot and waits for its reply.
func (c *Client) Analyze(req Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	res, err := c.nc.Request(c.channel, data, c.timeout)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return nil, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))

	var resp Response
	if err := json.Unmarshal(res.Data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("Bot returned: " + resp.Error)
	}
	return &resp, nil
}
