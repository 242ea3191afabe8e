// Package influxdb writes playback history to InfluxDB v2.
//
// Two measurements are written, both tagged with renderer_uuid and player:
//
//	playback      state, volume, muted, position_s   (periodic samples)
//	track_change  title, artist, composer, album     (on every new track)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteTrackChange(influxdb.Track{Player: "Living Room", Title: "Song A"}, time.Now())
//
// Writes are batched according to batch_size and flush_interval and never
// block the caller. Write failures are reported through SetOnError.
package influxdb
