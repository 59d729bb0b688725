package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Player
		"Starting playback":                       "再生を開始します",
		"Prebuffering frames":                     "フレームを先読み中",
		"Playback started at %dx%d cells, %d fps": "再生開始: %dx%d セル, %d fps",
		"Draining pipeline":                       "パイプラインを排出中",
		"Playback cancelled by user":              "ユーザーにより再生が中断されました",
		"Playback complete":                       "再生が完了しました",
		"Presented %d frames, dropped %d":         "%d フレームを表示、%d フレームを破棄しました",

		// Source
		"Opening video %s":                         "動画 %s を開いています",
		"Source: %dx%d at %.2f fps":                "ソース: %dx%d, %.2f fps",
		"Source FPS unknown, defaulting to %.0f":   "ソースFPSが不明なため %.0f を使用します",
		"Decoder reached end of stream":            "デコーダがストリーム終端に到達しました",
		"Decode error: %s":                         "デコードエラー: %s",

		// Sink
		"Terminal restored":           "ターミナルを復元しました",
		"Render error: %s":            "描画エラー: %s",

		// Audio
		"Starting audio sidecar %s":   "オーディオサイドカー %s を開始します",
		"Audio sidecar stopped":       "オーディオサイドカーを停止しました",
		"Audio sidecar failed: %s":    "オーディオサイドカーが失敗しました: %s",

		// CLI
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
		"No video files found in %s":    "%s に動画ファイルが見つかりません",
	})
}
