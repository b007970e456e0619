package topology

import (
	"encoding/json"
	"fmt"
	"strconv"
)

//	{
//	  "SPDisplaysDataType" : [
//	    {
//	      "_name" : "kHW_AppleM1Item",
//	      "spdisplays_ndrvs" : [
//	        {
//	          "_name" : "Color LCD",
//	          "_spdisplays_display-vendor-id" : "610",
//	          "_spdisplays_displayID" : "1",
//	          "spdisplays_connection_type" : "spdisplays_internal",
//	          "spdisplays_main" : "spdisplays_yes",
//	          "spdisplays_online" : "spdisplays_yes"
//	        }
//	      ]
//	    }
//	  ]
//	}
//
// SystemProfilerOutput is the subset of `system_profiler SPDisplaysDataType -json` used for naming.
type SystemProfilerOutput struct {
	SPDisplaysDataType []struct {
		Name  string            `json:"_name"`
		Ndrvs []ProfiledDisplay `json:"spdisplays_ndrvs"`
	} `json:"SPDisplaysDataType"`
}

// ProfiledDisplay is one display entry of system_profiler.
type ProfiledDisplay struct {
	Name            string `json:"_name"`
	DisplayVendorID string `json:"_spdisplays_display-vendor-id"`
	DisplayID       string `json:"_spdisplays_displayID"`
	ConnectionType  string `json:"spdisplays_connection_type"`
	Online          string `json:"spdisplays_online"`
}

// knownVendors maps system_profiler hex vendor IDs to manufacturer names.
var knownVendors = map[string]string{
	"610":  "Apple",
	"5e3":  "ASUS",
	"10ac": "Dell",
	"1e6d": "LG",
	"4c2d": "Samsung",
}

// ParseSystemProfiler maps CGDirectDisplayID to a display name.
func ParseSystemProfiler(data []byte) (map[uint32]string, error) {
	var out SystemProfilerOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse system_profiler output: %w", err)
	}

	names := make(map[uint32]string)
	for _, gpu := range out.SPDisplaysDataType {
		for _, d := range gpu.Ndrvs {
			id, err := strconv.ParseUint(d.DisplayID, 10, 32)
			if err != nil {
				continue
			}
			if name := profiledName(d); name != "" {
				names[uint32(id)] = name
			}
		}
	}
	return names, nil
}

func profiledName(d ProfiledDisplay) string {
	if d.Name != "" && d.Name != "(null)" {
		return d.Name
	}
	if vendor, ok := knownVendors[d.DisplayVendorID]; ok {
		return vendor + " Display"
	}
	return ""
}
