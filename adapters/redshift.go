package adapters

// Register client
func init() {
	// redshift speaks the postgres wire protocol
	_ = register(&sqlAdapter{
		name: "postgres",
		dsn:  redshiftDSN,
	}, "redshift")
}

func redshiftDSN(url string) (string, error) {
	return "postgres://" + stripScheme(url), nil
}
