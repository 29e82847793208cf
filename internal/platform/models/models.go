package models

type PersonInfo struct {
	ID string `json:"id"`
}

type Person struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Devices  []Device `json:"devices"`
}

type Device struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
	On           bool   `json:"on"`
	Zones        []Zone `json:"zones,omitempty"`
}

type Zone struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ZoneNumber int    `json:"zoneNumber"`
	Enabled    bool   `json:"enabled"`
}
