package catalog

// DefaultStations returns the built-in station list
func DefaultStations() []Station {
	return []Station{
		{
			ID:          "ming-pen-am1296",
			Name:        "Ming Pen Station One AM1296",
			Country:     "Taiwan",
			Language:    "Chinese",
			Genres:      []string{"Adult Contemporary", "Oldies", "Pop"},
			SourcePages: []string{"https://dimaradio.com/asia/taiwan/ming-pen-station-one-am1296-online"},
			Streams: []StreamVariant{
				{Type: "HLS", Role: RoleMaster, URL: "https://streamak0134.akamaized.net/live0134lh-5gst/_definst_/am1296/playlist.m3u8"},
				{Type: "HLS", Role: RoleVariant, URL: "https://streamak0134.akamaized.net/live0134lh-5gst/_definst_/am1296/chunklist.m3u8"},
			},
		},
		{
			ID:       "ming-pen-am855",
			Name:     "Ming Pen Station Two AM855",
			Country:  "Taiwan",
			Language: "Chinese",
			Genres:   []string{"Adult Contemporary", "Oldies", "Pop"},
			SourcePages: []string{
				"https://dimaradio.com/asia/taiwan/ming-pen-station-two-am855-online",
				"https://mingpen.com.tw/page/6",
			},
			Streams: []StreamVariant{
				{Type: "HLS", Role: RoleMaster, URL: "https://streamak0134.akamaized.net/live0134lh-5gst/_definst_/am855/playlist.m3u8"},
				{Type: "HLS", Role: RoleVariant, URL: "https://streamak0134.akamaized.net/live0134lh-5gst/_definst_/am855/chunklist.m3u8"},
			},
		},
	}
}
