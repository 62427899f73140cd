package stats

import (
	"exstats/pkg/conn"
	"exstats/pkg/exception"
)

// Provider supplies the backend location. It is read once at startup.
type Provider interface {
	Driver() string
	ConnectionString() string
	TableName() string
}

// optionProvider is implemented by providers that also carry pool settings.
type optionProvider interface {
	Option() conn.Option
}

// Open connects to the backend described by p and binds a store to it.
// The caller owns the returned client and closes it after the store is idle.
func Open(p Provider) (*Store, *conn.Client, error) {
	if p == nil || p.ConnectionString() == "" || p.TableName() == "" {
		return nil, nil, &Error{Kind: exception.ErrBackendNotConfigured, Op: "open"}
	}

	var opt conn.Option
	if o, ok := p.(optionProvider); ok {
		opt = o.Option()
	}
	opt.Driver = p.Driver()
	opt.ConnString = p.ConnectionString()

	client, err := conn.New(opt)
	if err != nil {
		return nil, nil, classify("open", "", err)
	}

	store, err := NewStore(client.DB(), p.TableName())
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, client, nil
}
