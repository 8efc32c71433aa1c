package domain

type IPAddress struct {
	Interface string `json:"interface"`
	Address   string `json:"address"`
}

type NetworkInfo struct {
	IPAddresses []IPAddress `json:"ipAddresses"`
	DNS         []string    `json:"dns"`
}

type WifiNetwork struct {
	SSID      string `json:"ssid"`
	Security  string `json:"security"`
	Signal    int    `json:"signal"`
	Connected bool   `json:"connected"`
}
