package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"train-tracker/internal/status"
)

type NATSPublisher struct {
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("train-tracker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected to %s", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// PublishStatus sends one instance's status on <prefix>.<trainId>.<instanceId>.
func (p *NATSPublisher) PublishStatus(st status.TrainStatus) error {
	subject := Subject(p.prefix, st.TrainID, st.InstanceID)
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	return p.publish(subject, b)
}

// PublishRemoved sends an empty message on the instance's subject once the
// instance no longer appears in the source.
func (p *NATSPublisher) PublishRemoved(trainID string, instanceID int) error {
	subject := Subject(p.prefix, trainID, instanceID)
	if p.logSubjects {
		log.Printf("nats publish removal subject=%s", subject)
	}
	return p.publish(subject, nil)
}

func (p *NATSPublisher) publish(subject string, b []byte) error {
	start := time.Now()
	err := p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func Subject(prefix, trainID string, instanceID int) string {
	tokens := make([]string, 0, 4)
	for _, part := range strings.Split(prefix, ".") {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, subjectToken(part))
		}
	}
	tokens = append(tokens, subjectToken(trainID), strconv.Itoa(instanceID))
	return strings.Join(tokens, ".")
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
