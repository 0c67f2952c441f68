package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-friendly durations so operators can keep a readable config
// file next to the binary.
type StructuredJSONConfig struct {
	Auth struct {
		TokenSignKey string `json:"token_sign_key"`
		TokenIssuer  string `json:"token_issuer"`
	} `json:"auth,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Local struct {
			DSN string `json:"dsn"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress        string   `json:"http_address"`
		GRPCAddress        string   `json:"grpc_address"`
		RequestTimeout     Duration `json:"request_timeout"`
		EmergencySyncLimit int      `json:"emergency_sync_limit"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Sync struct {
		Interval       Duration `json:"interval"`
		OnlineDebounce Duration `json:"online_debounce"`
		MaxAttempts    int      `json:"max_attempts"`
		BackoffBase    Duration `json:"backoff_base"`
		BackoffMax     Duration `json:"backoff_max"`
	} `json:"sync,omitempty"`

	Lifecycle struct {
		VisibilityDebounce Duration `json:"visibility_debounce"`
		ManualDebounce     Duration `json:"manual_debounce"`
		FlushTimeout       Duration `json:"flush_timeout"`
	} `json:"lifecycle,omitempty"`

	Flush struct {
		QueueName    string   `json:"queue_name"`
		PollInterval Duration `json:"poll_interval"`
	} `json:"flush,omitempty"`

	Reconcile struct {
		ExactWindow            Duration `json:"exact_window"`
		ProbableWindow         Duration `json:"probable_window"`
		CorrelationWindow      Duration `json:"correlation_window"`
		SameBatchWindow        Duration `json:"same_batch_window"`
		DisableLengthHeuristic bool     `json:"disable_length_heuristic"`
	} `json:"reconcile,omitempty"`

	Alerts struct {
		FailureWindow    Duration `json:"failure_window"`
		FailureThreshold int      `json:"failure_threshold"`
	} `json:"alerts,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Auth: Auth{
			TokenSignKey: jsonCfg.Auth.TokenSignKey,
			TokenIssuer:  jsonCfg.Auth.TokenIssuer,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Local: Local{
				DSN: jsonCfg.Storage.Local.DSN,
			},
		},
		Server: Server{
			HTTPAddress:        jsonCfg.Server.HTTPAddress,
			GRPCAddress:        jsonCfg.Server.GRPCAddress,
			RequestTimeout:     time.Duration(jsonCfg.Server.RequestTimeout),
			EmergencySyncLimit: jsonCfg.Server.EmergencySyncLimit,
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Sync: Sync{
			Interval:       time.Duration(jsonCfg.Sync.Interval),
			OnlineDebounce: time.Duration(jsonCfg.Sync.OnlineDebounce),
			MaxAttempts:    jsonCfg.Sync.MaxAttempts,
			BackoffBase:    time.Duration(jsonCfg.Sync.BackoffBase),
			BackoffMax:     time.Duration(jsonCfg.Sync.BackoffMax),
		},
		Lifecycle: Lifecycle{
			VisibilityDebounce: time.Duration(jsonCfg.Lifecycle.VisibilityDebounce),
			ManualDebounce:     time.Duration(jsonCfg.Lifecycle.ManualDebounce),
			FlushTimeout:       time.Duration(jsonCfg.Lifecycle.FlushTimeout),
		},
		Flush: Flush{
			QueueName:    jsonCfg.Flush.QueueName,
			PollInterval: time.Duration(jsonCfg.Flush.PollInterval),
		},
		Reconcile: Reconcile{
			ExactWindow:            time.Duration(jsonCfg.Reconcile.ExactWindow),
			ProbableWindow:         time.Duration(jsonCfg.Reconcile.ProbableWindow),
			CorrelationWindow:      time.Duration(jsonCfg.Reconcile.CorrelationWindow),
			SameBatchWindow:        time.Duration(jsonCfg.Reconcile.SameBatchWindow),
			DisableLengthHeuristic: jsonCfg.Reconcile.DisableLengthHeuristic,
		},
		Alerts: Alerts{
			FailureWindow:    time.Duration(jsonCfg.Alerts.FailureWindow),
			FailureThreshold: jsonCfg.Alerts.FailureThreshold,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON
// unmarshaling from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
