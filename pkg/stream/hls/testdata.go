package hls

// Chunklist fixtures shared by the package tests
var (
	TestChunklistURL = "https://streamak0134.akamaized.net/live0134lh-5gst/_definst_/am1296/chunklist.m3u8"

	TestChunklist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:4821
#EXTINF:10.005,
media_4821.aac
#EXTINF:10.005,
media_4822.aac
#EXTINF:9.984,
media_4823.aac
#EXTINF:10.005,
media_4824.aac
#EXTINF:10.005,
media_4825.aac
#EXTINF:10.005,
media_4826.aac`

	TestChunklistMixed = "#EXTM3U\r\n" +
		"#EXTINF:10.0,\r\n" +
		"   media_7.aac   \r\n" +
		"media_x.aac\n" +
		"segment_8.aac\n" +
		"media_9.ts\n" +
		"prefix_media_10.aac\n" +
		"media_11.aac?token=abc\n" +
		"\tmedia_12.aac\n"

	TestChunklistNoSegments = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:10.0,
segment0.ts`
)
