package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	beepSampleRate = 44100
	beepFrequency  = 440
	beepDuration   = 0.1
)

// Beep implements chipvm.Buzzer. Raylib is not thread safe, so the UI
// loop plays it.
func (app *App) Beep() {
	app.pendingBeeps.Add(1)
}

func (app *App) initAudio() {
	rl.InitAudioDevice()
	if !rl.IsAudioDeviceReady() {
		app.logger.Warn("No audio device, the buzzer is muted")
		return
	}

	samples := squareWave()
	wave := rl.NewWave(uint32(len(samples)/2), beepSampleRate, 16, 1, samples)
	app.beep = rl.LoadSoundFromWave(wave)
	app.hasAudio = true
}

func (app *App) closeAudio() {
	if app.hasAudio {
		rl.UnloadSound(app.beep)
	}
	rl.CloseAudioDevice()
}

func (app *App) playPendingBeeps() {
	if app.pendingBeeps.Swap(0) == 0 || !app.hasAudio {
		return
	}

	if !rl.IsSoundPlaying(app.beep) {
		rl.PlaySound(app.beep)
	}
}

// squareWave builds a 16 bit little endian mono tone.
func squareWave() []byte {
	samples := int(beepSampleRate * beepDuration)
	data := make([]byte, 0, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(math.MaxInt16 / 8)
		if (i*beepFrequency*2/beepSampleRate)%2 == 1 {
			v = -v
		}
		data = append(data, byte(uint16(v)), byte(uint16(v)>>8))
	}

	return data
}
