package renderer

// Names of state variables read by the display and its publishers.
const (
	VarTransportState       = "TransportState"
	VarRelativeTimePosition = "RelativeTimePosition"
	VarCurrentTrackDuration = "CurrentTrackDuration"
	VarVolume               = "Volume"
	VarMute                 = "Mute"
	VarCurrentTrackMetaData = "CurrentTrackMetaData"
	VarLastChange           = "LastChange"
)

// Decoded track metadata, filled from CurrentTrackMetaData.
const (
	MetaTitle    = "Meta_Title"
	MetaArtist   = "Meta_Artist"
	MetaComposer = "Meta_Composer"
	MetaCreator  = "Meta_Creator"
	MetaAlbum    = "Meta_Album"
	MetaGenre    = "Meta_Genre"
	MetaYear     = "Meta_Year"
)

// TransportState values.
const (
	StatePlaying = "PLAYING"
	StatePaused  = "PAUSED_PLAYBACK"
	StateStopped = "STOPPED"
)

// metaFields are reset before every metadata decode.
var metaFields = []string{
	MetaTitle, MetaArtist, MetaComposer, MetaCreator, MetaAlbum, MetaGenre, MetaYear,
}
