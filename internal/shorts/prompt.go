package shorts

import "strings"

const personPlaceholder = "{person_name}"

// PromptTemplate asks for the complete vertical short package in one JSON
// reply. {person_name} is substituted by BuildPrompt.
const PromptTemplate = `You are a historian and documentary showrunner who blends the suspenseful narrative tones of
Stephen King, Jordan Peele, Christopher Nolan, and Stanley Kubrick. Create a COMPLETE vertical
short-film content package about {person_name}. All facts must be historically accurate.

Return your answer as minified JSON with the following schema:
{
  "music_prompt": "single prompt string for an original soundtrack",
  "thumbnail_prompts": [
    {
      "id": 1,
      "scene_focus": "brief Japanese description of what the frame captures",
      "prompt": "full English prompt meeting the art-direction rules"
    },
    ... exactly 30 entries total ...
  ],
  "motion_prompts": [
    {"id": 1, "scene_focus": "chapter or beat", "prompt": "cinematic motion prompt"},
    ... at least 10 entries ...
  ],
  "script": {
    "sections": [
      {
        "title": "オープニング" or "第1章" etc,
        "time_range": "0:00-1:30" format,
        "emotion_level": 1-10 integer,
        "visual_directions": "具体的な映像指示 (Japanese)",
        "narration": "1100 Japanese characters per section, with line breaks, quotes for citations",
        "data_points": ["YYYY年MM月DD日", "金額", ... at least two concrete items],
        "lesson": "各章の教訓"
      } (Opening + 10 chapters + Ending in chronological order)
    ]
  },
  "supplement": {
    "historical_background": "detailed Japanese summary",
    "references": ["primary or secondary sources with publication details"],
    "controversies": ["慎重な表現の論点"],
    "visual_assets": {
      "chapter_recommendations": ["list describing suggested visuals"],
      "color_grading": "ディズニー風のカラーグレーディング指示"
    }
  },
  "seo": {
    "titles": ["感情訴求型", "検索型", "クリックベイト"],
    "description": "500 Japanese characters structured with hook, overview, CTA",
    "tags": ["20 Japanese tags"],
    "chapters": [{"label": "第1章", "timestamp": "01:30"}],
    "thumbnail_advice": "視覚的多様性と選定理由"
  },
  "quality_checklist": ["確認事項と達成状況を日本語で明記"]
}

Thumbnail prompt requirements:
  * Must be vertical 9:16.
  * Include age, facial expression, historically accurate wardrobe and setting.
  * Include the keyword "Dynamic".
  * Include lighting directions (Rembrandt, golden hour, spotlight, etc.).
  * Add emotional or symbolic meaning.
  * Ensure copyright-safe Disney-inspired style.
  * Provide three prompts per chapter (including opening) for a total of 30.
  * Provide at least one motion prompt per chapter as cinematic camera guidance.

Script requirements:
  * Opening 90s, Chapters 1-9 150s each, Chapter 10 180s, Ending 180s. Provide explicit time_range.
  * Narration speed: 300-400 Japanese characters per minute, target ~1100 characters per section.
  * Include concrete dates, figures, names, places, and cited quotes ("...").
  * Follow emotional curve: Chapter1=3-4, Chapter2=5-6, Chapter3=7-8, Chapter4=6-5, Chapter5=4-3,
    Chapter6=7-8, Chapter7=5-4, Chapter8=3-2, Chapter9=2-1, Chapter10=4-6, Ending close with hope.
  * Close each section with a lesson or insight.

SEO requirements: include CTA for channel subscription, teaser for next figure, mention Disney style.
References: cite sources in Japanese, specify if "伝えられている" when uncertain.

Keep JSON valid. Do not wrap in markdown fences. Use escaped newlines (\n) inside narration strings.
`

// BuildPrompt fills the template for person.
func BuildPrompt(person string) string {
	return strings.ReplaceAll(PromptTemplate, personPlaceholder, person)
}
