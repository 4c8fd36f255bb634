package config

// AppConfig bundles everything the score server needs at boot. Log config
// loads first so a bad server config still fails with structured output.
type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	// The top-K block in award responses follows the same cap as the
	// leaderboard read path.
	if serverCfg.AwardTopKSize > serverCfg.LeaderboardMaxLimit {
		serverCfg.AwardTopKSize = serverCfg.LeaderboardMaxLimit
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
	}, nil
}
