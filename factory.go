package knifesql

// constructors maps every implemented engine to its client constructor.
// Supporting a new engine means adding one entry here.
var constructors = map[EngineKind]func(opts ...Option) Client{
	EngineSQLServer: func(opts ...Option) Client { return NewSQLServerClient(opts...) },
	EnginePostgres:  func(opts ...Option) Client { return NewPostgresClient(opts...) },
	EngineMySQL:     func(opts ...Option) Client { return NewMySQLClient(opts...) },
	EngineSQLite:    func(opts ...Option) Client { return NewSQLiteClient(opts...) },
}

// GetClient returns a new, unconnected client for kind.
func GetClient(kind EngineKind, opts ...Option) (Client, error) {
	newClient, ok := constructors[kind]
	if !ok {
		return nil, &UnsupportedEngineError{Kind: kind}
	}
	return newClient(opts...), nil
}

// Engines lists the implemented engine kinds in a stable order.
func Engines() []EngineKind {
	return []EngineKind{EngineSQLServer, EnginePostgres, EngineMySQL, EngineSQLite}
}
