package ledger

import (
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher announces settled hands to other services.
type Publisher interface {
	Publish(rec HandRecord) error
	Close()
}

// NATSPublisher publishes each hand as JSON on "<subject>.<room>".
type NATSPublisher struct {
	nc      *natsgo.Conn
	subject string
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := natsgo.Connect(url, natsgo.Name("pokerverse"))
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats %s", url)
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

func (p *NATSPublisher) Publish(rec HandRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal hand record")
	}
	return errors.Wrap(p.nc.Publish(p.subject+"."+rec.RoomID, data), "publish hand record")
}

func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
