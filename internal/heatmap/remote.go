package heatmap

import "fmt"

// Publisher delivers a typed message to the companion page.
type Publisher interface {
	Publish(kind string, payload any) error
}

// HeatmapMessage is the "heatmap" command payload.
const HeatmapMessage = "heatmap"

type remotePayload struct {
	Container string `json:"container"`
	Config    Config `json:"config"`
	Data      Data   `json:"data"`
}

// Remote draws through heatmap.js in the companion page.
type Remote struct {
	pub       Publisher
	container string
	cfg       Config
}

// CreateRemote binds a renderer to an element id on the companion page.
func CreateRemote(pub Publisher, container string, cfg Config) (*Remote, error) {
	if pub == nil {
		return nil, fmt.Errorf("heatmap: publisher is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Remote{pub: pub, container: container, cfg: cfg}, nil
}

func (r *Remote) SetData(data Data) error {
	if err := r.pub.Publish(HeatmapMessage, remotePayload{Container: r.container, Config: r.cfg, Data: data}); err != nil {
		return fmt.Errorf("publish heatmap: %w", err)
	}
	return nil
}
