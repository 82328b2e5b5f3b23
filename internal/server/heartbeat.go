package server

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

type heartbeatRequest struct {
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
}

type heartbeatData struct {
	UUID       string  `json:"uuid"`
	IPAddress  string  `json:"ip_address"`
	MACAddress *string `json:"mac_address"`
}

// decodeHeartbeat accepts JSON as well as the form posts sent by recorder firmware.
func decodeHeartbeat(r *http.Request) (heartbeatRequest, error) {
	var req heartbeatRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.IPAddress = r.PostForm.Get("ip_address")
	req.MACAddress = r.PostForm.Get("mac_address")
	return req, nil
}

func (h *Handler) handleHeartbeatSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeHeartbeat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ip := strings.TrimSpace(req.IPAddress)
	if ip == "" {
		writeError(w, http.StatusBadRequest, "IP address is required")
		return
	}
	mac := strings.TrimSpace(req.MACAddress)

	ctx := r.Context()

	if mac != "" {
		if err := h.ensureDevice(ctx, mac); err != nil {
			h.logger.Error("Error registering device for MAC %s: %v", mac, err)
			h.writeFailure(w, err, "Failed to record heartbeat")
			return
		}
	}

	id := h.newID()
	res, err := h.db.ExecuteWrite(ctx,
		`INSERT INTO heartbeat (uuid, ip_address, mac_address, created_on)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id`,
		recorder.String(id), recorder.String(ip), recorder.NullableString(mac))
	if err != nil {
		h.logger.Error("Error recording heartbeat: %v", err)
		h.writeFailure(w, err, "Failed to record heartbeat")
		return
	}
	if res.InsertID != nil {
		h.logger.Verbose("Heartbeat %d recorded from %s", *res.InsertID, ip)
	}

	data := heartbeatData{UUID: id, IPAddress: ip}
	if mac != "" {
		data.MACAddress = &mac
	}
	writeData(w, http.StatusOK, "Heartbeat recorded", data)
}

// ensureDevice registers an inactive recorder for a MAC address seen for the
// first time. Concurrent first heartbeats for one MAC create a single device.
func (h *Handler) ensureDevice(ctx context.Context, mac string) error {
	rows, err := h.db.ExecuteRead(ctx, `SELECT id FROM devices WHERE device_mac = $1`, recorder.String(mac))
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}

	res, err := h.db.ExecuteWrite(ctx,
		`INSERT INTO devices (id, device_name, device_mac, device_type, device_status, notes, created_on, updated_on)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 ON CONFLICT (device_mac) DO NOTHING`,
		recorder.String(h.newID()),
		recorder.String(deviceNameForMAC(mac)),
		recorder.String(mac),
		recorder.String("recorder"),
		recorder.String("inactive"),
		recorder.String("Auto-created from heartbeat"),
	)
	if err != nil {
		return err
	}
	if res.AffectedRows > 0 {
		h.logger.Info("Auto-created new device for MAC: %s", mac)
	}
	return nil
}

// deviceNameForMAC names a device after the last six characters of its MAC.
func deviceNameForMAC(mac string) string {
	if len(mac) > 6 {
		mac = mac[len(mac)-6:]
	}
	return "Device-" + mac
}
