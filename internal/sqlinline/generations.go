package sqlinline

const QInsertGeneration = `--sql cd4e66ac-2e09-40b9-9fd5-96d46baec922
insert into generations (
    id, operation_name, model, prompt, image_mime, outcome,
    error_kind, error_message, video_bytes, duration_ms, created_at
)
values (
    $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text,
    nullif($7::text, ''), nullif($8::text, ''), $9::bigint, $10::bigint, $11::timestamptz
);
`

const QSelectRecentGenerations = `--sql 6b5dbc4c-dee8-4712-82e7-901d73a59481
select
    id::text,
    coalesce(operation_name, ''),
    model,
    prompt,
    image_mime,
    outcome,
    coalesce(error_kind, ''),
    coalesce(error_message, ''),
    video_bytes,
    duration_ms,
    created_at
from generations
order by created_at desc
limit $1::int;
`
